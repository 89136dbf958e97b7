// -- cmd/query.go --
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/knowledgegraph"
	"github.com/xkilldash9x/kgraph/internal/observability"
	"github.com/xkilldash9x/kgraph/internal/reporting"
	"github.com/xkilldash9x/kgraph/internal/store"
	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

type queryOptions struct {
	input  string
	format string
	output string
}

// queryFunc answers one query against a loaded graph and returns the value to report.
type queryFunc func(q *knowledgegraph.QueryService) (any, error)

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query a saved graph",
		Long: `Loads a graph document and runs a structural or content query over it.
Results are printed as text, JSON or YAML.`,
		Example: `  kgraph query -i data/merged/merged_graphs.json stats
  kgraph query -i graph.json neighbors paris --direction incoming -f json
  kgraph query -i graph.json property population 2148000`,
	}

	queryCmd.PersistentFlags().StringVarP(&opts.input, "input", "i", "", "Graph file to query (required)")
	queryCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", reporting.FormatText, "Output format: text, json or yaml")
	queryCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Write the result to a file instead of stdout")
	_ = queryCmd.MarkPersistentFlagRequired("input")

	run := func(fn queryFunc) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runQuery(observability.GetLogger(), cfg, *opts, fn, cmd.OutOrStdout())
		}
	}

	queryCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count nodes and edges by type",
		Args:  cobra.NoArgs,
		RunE: run(func(q *knowledgegraph.QueryService) (any, error) {
			return q.GetStats(), nil
		}),
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "node ID",
		Short: "Show the node with the given id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				n, ok := q.GetNodeByID(args[0])
				if !ok {
					return nil, fmt.Errorf("node %q not found", args[0])
				}
				return n, nil
			})(cmd, args)
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "type TYPE",
		Short: "List the nodes of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.GetNodesByType(args[0]), nil
			})(cmd, args)
		},
	})

	queryCmd.AddCommand(&cobra.Command{
		Use:   "property KEY VALUE",
		Short: "List the nodes whose property equals a value",
		Long: `VALUE is read as JSON when it parses (42, true, null, "quoted", [1,2])
and as a plain string otherwise.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := parsePropertyValue(args[1])
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.GetNodesByProperty(args[0], value), nil
			})(cmd, args)
		},
	})

	var searchIn []string
	searchCmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Case-insensitive substring search over ids and properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.SearchNodes(args[0], searchIn), nil
			})(cmd, args)
		},
	}
	searchCmd.Flags().StringSliceVar(&searchIn, "in", nil, "Only search these properties (default: id and every string property)")
	queryCmd.AddCommand(searchCmd)

	var edgeType, direction string
	neighborsCmd := &cobra.Command{
		Use:   "neighbors ID",
		Short: "List the neighbors of a node with the connecting edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := knowledgegraph.ParseDirection(direction)
			if err != nil {
				return err
			}
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.Neighborhood(args[0], edgeType, dir)
			})(cmd, args)
		},
	}
	neighborsCmd.Flags().StringVarP(&edgeType, "edge-type", "t", "", "Only follow edges of this type")
	neighborsCmd.Flags().StringVarP(&direction, "direction", "d", string(knowledgegraph.Both), "outgoing, incoming or both")
	queryCmd.AddCommand(neighborsCmd)

	queryCmd.AddCommand(&cobra.Command{
		Use:   "between SOURCE TARGET",
		Short: "List the edges from SOURCE to TARGET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.GetEdgesBetween(args[0], args[1]), nil
			})(cmd, args)
		},
	})

	var noEdges bool
	subgraphCmd := &cobra.Command{
		Use:   "subgraph ID...",
		Short: "Extract the subgraph induced by a set of node ids",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(q *knowledgegraph.QueryService) (any, error) {
				return q.GetSubgraph(args, !noEdges), nil
			})(cmd, args)
		},
	}
	subgraphCmd.Flags().BoolVar(&noEdges, "no-edges", false, "Return the nodes only")
	queryCmd.AddCommand(subgraphCmd)

	return queryCmd
}

// runQuery loads the input graph, answers fn and reports the result.
func runQuery(logger *zap.Logger, cfg config.Interface, opts queryOptions, fn queryFunc, stdout io.Writer) error {
	format := strings.ToLower(opts.format)

	repo := store.NewJSONStore(logger, store.WithStrictNodeIDs(cfg.Graph().StrictNodeIDs))
	g, diags, err := repo.Load(opts.input)
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		logger.Warn("Graph loaded with skipped entities", zap.String("path", opts.input), zap.Int("skipped", len(diags)))
	}

	result, err := fn(knowledgegraph.NewQueryService(g, logger))
	if err != nil {
		return err
	}

	var reporter reporting.Reporter
	if opts.output == "" || opts.output == "-" {
		reporter, err = reporting.ForWriter(format, stdout)
	} else {
		reporter, err = reporting.New(format, opts.output)
	}
	if err != nil {
		return err
	}
	if err := reporter.Write(result); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write result: %w", err)
	}
	return reporter.Close()
}

// parsePropertyValue reads s as a JSON value, falling back to a string.
func parsePropertyValue(s string) graphmodel.Value {
	if graphmodel.ValidJSON([]byte(s)) {
		var v graphmodel.Value
		if err := graphmodel.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}
	return graphmodel.String(s)
}
