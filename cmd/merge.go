// -- cmd/merge.go --
package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/observability"
	"github.com/xkilldash9x/kgraph/internal/store"
)

func newMergeCmd() *cobra.Command {
	var inputDir, output string

	mergeCmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge every extracted graph in a directory into one document",
		Long: `Loads every file in the input directory whose name ends with
storage.merge_suffix, merges them in name order and writes the result.
Files that fail to load are reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return runMerge(observability.GetLogger(), cfg, inputDir, output, cmd.OutOrStdout())
		},
	}

	mergeCmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "Directory of graph files (default: storage.extracted_dir)")
	mergeCmd.Flags().StringVarP(&output, "output", "o", "", "Merged graph file (default: storage.merged_dir/storage.merged_file)")
	return mergeCmd
}

// runMerge is the testable core of the merge command.
func runMerge(logger *zap.Logger, cfg config.Interface, inputDir, output string, out io.Writer) error {
	storage := cfg.Storage()
	if inputDir == "" {
		inputDir = storage.ExtractedDir
	}
	if output == "" {
		output = filepath.Join(storage.MergedDir, storage.MergedFile)
	}

	paths, err := store.FindGraphFiles(inputDir, storage.MergeSuffix)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Warn("No graph files to merge", zap.String("dir", inputDir), zap.String("suffix", storage.MergeSuffix))
		fmt.Fprintf(out, "No files ending in %s found in %s\n", storage.MergeSuffix, inputDir)
		return nil
	}

	repo := store.NewJSONStore(logger,
		store.WithIndent(storage.Indent),
		store.WithStrictNodeIDs(cfg.Graph().StrictNodeIDs))

	merged, report, err := repo.LoadAndMergeMultiple(paths)
	for _, f := range report.Failed {
		fmt.Fprintf(out, "Skipped %s: %v\n", f.Path, f.Err)
	}
	if errors.Is(err, store.ErrNoGraphsLoaded) {
		return fmt.Errorf("none of the %d files in %s could be loaded: %w", len(paths), inputDir, err)
	}
	if err != nil {
		return err
	}

	if err := repo.Save(merged, output); err != nil {
		return err
	}
	fmt.Fprintf(out, "Merged %d of %d graphs into %s (%d nodes, %d edges)\n",
		len(report.Loaded), report.Total(), output, merged.Len(), len(merged.Edges()))
	return nil
}
