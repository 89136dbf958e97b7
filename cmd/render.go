// -- cmd/render.go --
package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/observability"
	"github.com/xkilldash9x/kgraph/internal/render"
	"github.com/xkilldash9x/kgraph/internal/store"
)

type renderFlags struct {
	input     string
	output    string
	noPhysics bool
	height    string
	width     string
	title     string
}

func newRenderCmd() *cobra.Command {
	var flags renderFlags

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a graph as an interactive HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("no-physics") {
				cfg.SetRenderPhysics(!flags.noPhysics)
			}
			opts := render.OptionsFromConfig(cfg.Render())
			if cmd.Flags().Changed("height") {
				opts.Height = flags.height
			}
			if cmd.Flags().Changed("width") {
				opts.Width = flags.width
			}
			if flags.title != "" {
				opts.Title = flags.title
			}
			return runRender(observability.GetLogger(), cfg, flags.input, flags.output, opts, cmd.OutOrStdout())
		},
	}

	renderCmd.Flags().StringVarP(&flags.input, "input", "i", "", "Graph file to render (default: the merged graph)")
	renderCmd.Flags().StringVarP(&flags.output, "output", "o", "", "HTML file to write (default: storage.visualization_dir/graph.html)")
	renderCmd.Flags().BoolVar(&flags.noPhysics, "no-physics", false, "Disable the physics layout")
	renderCmd.Flags().StringVar(&flags.height, "height", "", "Canvas height (CSS)")
	renderCmd.Flags().StringVar(&flags.width, "width", "", "Canvas width (CSS)")
	renderCmd.Flags().StringVar(&flags.title, "title", "", "Page title")
	return renderCmd
}

// runRender is the testable core of the render command.
func runRender(logger *zap.Logger, cfg config.Interface, input, output string, opts render.Options, out io.Writer) error {
	storage := cfg.Storage()
	if input == "" {
		input = filepath.Join(storage.MergedDir, storage.MergedFile)
	}
	if output == "" {
		output = filepath.Join(storage.VisualizationDir, "graph.html")
	}

	repo := store.NewJSONStore(logger, store.WithStrictNodeIDs(cfg.Graph().StrictNodeIDs))
	g, _, err := repo.Load(input)
	if err != nil {
		return err
	}

	if err := render.NewHTMLRenderer(logger).RenderToFile(g, output, opts); err != nil {
		return err
	}
	fmt.Fprintf(out, "Rendered %s (%d nodes, %d edges) to %s\n", input, g.Len(), len(g.Edges()), output)
	return nil
}
