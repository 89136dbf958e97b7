// -- cmd/publish.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/observability"
	"github.com/xkilldash9x/kgraph/internal/store"
)

// dbProvider opens the database pool used by publish and pull.
// The returned cleanup function releases it.
type dbProvider interface {
	Create(ctx context.Context, cfg config.Interface) (store.DBPool, func(), error)
}

type defaultDBProvider struct{}

// NewDBProvider returns the provider that connects to database.url.
func NewDBProvider() dbProvider {
	return &defaultDBProvider{}
}

func (p *defaultDBProvider) Create(ctx context.Context, cfg config.Interface) (store.DBPool, func(), error) {
	url := cfg.Database().URL
	if url == "" {
		return nil, nil, errors.New("database URL is not configured (KGRAPH_DATABASE_URL)")
	}
	pool, err := store.Connect(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

func newPublishCmd(provider dbProvider) *cobra.Command {
	var input, name string

	publishCmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a graph file to PostgreSQL",
		Long: `Loads a graph document and stores it in PostgreSQL under a name,
replacing any graph previously published under the same name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runPublish(cmd.Context(), observability.GetLogger(), cfg, input, name, provider, cmd.OutOrStdout())
		},
	}
	publishCmd.Flags().StringVarP(&input, "input", "i", "", "Graph file to publish (default: the merged graph)")
	publishCmd.Flags().StringVarP(&name, "name", "n", "", "Name to publish under (default: the input file name)")
	return publishCmd
}

func newPullCmd(provider dbProvider) *cobra.Command {
	var name, output string

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Read a published graph back into a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runPull(cmd.Context(), observability.GetLogger(), cfg, name, output, provider, cmd.OutOrStdout())
		},
	}
	pullCmd.Flags().StringVarP(&name, "name", "n", "", "Published graph name (required)")
	pullCmd.Flags().StringVarP(&output, "output", "o", "", "File to write (default: storage.merged_dir/NAME.json)")
	_ = pullCmd.MarkFlagRequired("name")
	return pullCmd
}

// runPublish is the testable core of the publish command.
func runPublish(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	input, name string,
	provider dbProvider,
	out io.Writer,
) error {
	storage := cfg.Storage()
	if input == "" {
		input = filepath.Join(storage.MergedDir, storage.MergedFile)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	}

	repo := store.NewJSONStore(logger, store.WithStrictNodeIDs(cfg.Graph().StrictNodeIDs))
	g, _, err := repo.Load(input)
	if err != nil {
		return err
	}

	pg, cleanup, err := openPostgresStore(ctx, logger, cfg, provider)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := pg.SaveGraph(ctx, name, g); err != nil {
		return err
	}
	fmt.Fprintf(out, "Published %s as %q (%d nodes, %d edges)\n", input, name, g.Len(), len(g.Edges()))
	return nil
}

func runPull(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	name, output string,
	provider dbProvider,
	out io.Writer,
) error {
	storage := cfg.Storage()
	if output == "" {
		output = filepath.Join(storage.MergedDir, name+".json")
	}

	pg, cleanup, err := openPostgresStore(ctx, logger, cfg, provider)
	if err != nil {
		return err
	}
	defer cleanup()

	g, err := pg.LoadGraph(ctx, name)
	if err != nil {
		return err
	}
	repo := store.NewJSONStore(logger, store.WithIndent(storage.Indent))
	if err := repo.Save(g, output); err != nil {
		return err
	}
	fmt.Fprintf(out, "Pulled %q into %s (%d nodes, %d edges)\n", name, output, g.Len(), len(g.Edges()))
	return nil
}

// openPostgresStore connects, verifies the connection and ensures the schema.
func openPostgresStore(ctx context.Context, logger *zap.Logger, cfg config.Interface, provider dbProvider) (*store.PostgresStore, func(), error) {
	pool, cleanup, err := provider.Create(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pg, err := store.NewPostgresStore(ctx, pool, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return pg, cleanup, nil
}
