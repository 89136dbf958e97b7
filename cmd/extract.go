// -- cmd/extract.go --
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/extraction"
	"github.com/xkilldash9x/kgraph/internal/llmclient"
	"github.com/xkilldash9x/kgraph/internal/network"
	"github.com/xkilldash9x/kgraph/internal/observability"
	"github.com/xkilldash9x/kgraph/internal/store"
	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

// extractDeps holds the constructors for the external collaborators of
// `extract` so tests can replace them.
type extractDeps struct {
	newLLMClient func(cfg config.LLMModelConfig, logger *zap.Logger) (llmclient.Client, error)
	newFetcher   func(cfg config.FetchConfig, logger *zap.Logger) extraction.TextFetcher
}

func defaultExtractDeps() extractDeps {
	return extractDeps{
		newLLMClient: llmclient.NewClient,
		newFetcher: func(cfg config.FetchConfig, logger *zap.Logger) extraction.TextFetcher {
			return network.NewFetcher(cfg, nil, logger)
		},
	}
}

type extractOptions struct {
	text      string
	files     []string
	url       string
	urlList   string
	context   string
	outputDir string
	urlsDir   string
	model     string
}

func newExtractCmd(deps extractDeps) *cobra.Command {
	var opts extractOptions

	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract a knowledge graph from text, files or web pages",
		Long: `Runs the configured LLM over a source and saves the resulting graph as a
JSON document. Exactly one of --text, --file, --url or --url-list is required.`,
		Example: `  kgraph extract --text "Paris is the capital of France."
  kgraph extract --file notes/a.txt --file notes/b.txt
  kgraph extract --url https://en.wikipedia.org/wiki/Paris --context "European capitals"
  kgraph extract --url-list urls.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			return runExtract(cmd.Context(), logger, cfg, opts, deps, cmd.OutOrStdout())
		},
	}

	extractCmd.Flags().StringVar(&opts.text, "text", "", "Text to extract from")
	extractCmd.Flags().StringSliceVar(&opts.files, "file", nil, "Text file(s) to extract from (repeatable)")
	extractCmd.Flags().StringVar(&opts.url, "url", "", "Web page to extract from")
	extractCmd.Flags().StringVar(&opts.urlList, "url-list", "", "File with one URL per line")
	extractCmd.Flags().StringVar(&opts.context, "context", "", "Additional context passed to the model")
	extractCmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for graph files (default: storage.extracted_dir)")
	extractCmd.Flags().StringVar(&opts.urlsDir, "urls-dir", "", "Directory for fetched page text (default: storage.urls_dir)")
	extractCmd.Flags().StringVar(&opts.model, "model", "", "Model name (overrides llm.model)")
	extractCmd.MarkFlagsMutuallyExclusive("text", "file", "url", "url-list")
	return extractCmd
}

// runExtract is the testable core of the extract command.
func runExtract(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.Interface,
	opts extractOptions,
	deps extractDeps,
	out io.Writer,
) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if opts.model != "" {
		cfg.SetLLMModel(opts.model)
	}
	storage := cfg.Storage()
	if opts.outputDir == "" {
		opts.outputDir = storage.ExtractedDir
	}
	if opts.urlsDir == "" {
		opts.urlsDir = storage.URLsDir
	}

	llmCfg := cfg.LLM()
	client, err := deps.newLLMClient(llmCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	defer client.Close()

	strict := cfg.Graph().StrictNodeIDs
	provider := extraction.NewLLMProvider(client, float64(llmCfg.Temperature), logger)
	text := extraction.NewTextExtractor(provider, llmCfg.Model, logger, extraction.WithStrictNodeIDs(strict))
	repo := store.NewJSONStore(logger, store.WithIndent(storage.Indent), store.WithStrictNodeIDs(strict))

	x := &extractRun{
		opts:   opts,
		text:   text,
		repo:   repo,
		logger: logger,
		out:    out,
		suffix: storage.MergeSuffix,
	}

	switch {
	case opts.text != "":
		return x.fromText(ctx)
	case len(opts.files) > 0:
		return x.fromFiles(ctx)
	default:
		urlExtractor := extraction.NewURLExtractor(text, deps.newFetcher(cfg.Fetch(), logger), logger)
		if opts.url != "" {
			return x.fromURL(ctx, urlExtractor, opts.url)
		}
		return x.fromURLList(ctx, urlExtractor)
	}
}

func (o extractOptions) validate() error {
	modes := 0
	for _, set := range []bool{o.text != "", len(o.files) > 0, o.url != "", o.urlList != ""} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("exactly one of --text, --file, --url or --url-list is required")
	}
	return nil
}

// extractRun carries the state shared by the extraction modes.
type extractRun struct {
	opts   extractOptions
	text   *extraction.TextExtractor
	repo   *store.JSONStore
	logger *zap.Logger
	out    io.Writer
	suffix string
}

func (x *extractRun) fromText(ctx context.Context) error {
	g, err := x.text.Extract(ctx, x.opts.text, x.opts.context)
	if err != nil {
		return err
	}
	id, _ := g.Metadata()[extraction.MetaExtractionID].AsString()
	if len(id) > 8 {
		id = id[:8]
	}
	return x.save(g, filepath.Join(x.opts.outputDir, "text_"+id+x.suffix))
}

func (x *extractRun) fromFiles(ctx context.Context) error {
	files := extraction.NewFileExtractor(x.text, x.logger)
	graphs, failures := files.ExtractFromMultiple(ctx, x.opts.files, x.opts.context)
	for _, f := range failures {
		fmt.Fprintf(x.out, "Failed %s: %v\n", f.Source, f.Err)
	}

	for _, g := range graphs {
		source, _ := g.Metadata()[extraction.MetaSourceFile].AsString()
		if err := x.save(g, filepath.Join(x.opts.outputDir, extraction.GraphFileName(source, x.suffix))); err != nil {
			return err
		}
	}
	if len(graphs) == 0 {
		return fmt.Errorf("no graphs extracted from %d files", len(x.opts.files))
	}
	return nil
}

func (x *extractRun) fromURL(ctx context.Context, u *extraction.URLExtractor, rawURL string) error {
	pageText, err := u.Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	textPath, err := extraction.SaveText(rawURL, x.opts.urlsDir, pageText)
	if err != nil {
		return err
	}
	x.logger.Info("Saved page text", zap.String("url", rawURL), zap.String("path", textPath))

	g, err := u.ExtractFromText(ctx, rawURL, pageText, x.opts.context)
	if err != nil {
		return err
	}
	return x.save(g, filepath.Join(x.opts.outputDir, extraction.GraphFileName(textPath, x.suffix)))
}

// fromURLList processes the URLs one at a time. A failing URL is reported and
// skipped; the command fails only if no URL succeeded.
func (x *extractRun) fromURLList(ctx context.Context, u *extraction.URLExtractor) error {
	urls, err := readURLList(x.opts.urlList)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", x.opts.urlList)
	}

	var succeeded, failed int
	for _, rawURL := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := x.fromURL(ctx, u, rawURL); err != nil {
			failed++
			x.logger.Warn("Failed to process URL", zap.String("url", rawURL), zap.Error(err))
			fmt.Fprintf(x.out, "Failed %s: %v\n", rawURL, err)
			continue
		}
		succeeded++
	}

	fmt.Fprintf(x.out, "Processed %d URLs: %d succeeded, %d failed\n", len(urls), succeeded, failed)
	if succeeded == 0 {
		return fmt.Errorf("all %d URLs failed", len(urls))
	}
	return nil
}

func (x *extractRun) save(g *graphmodel.Graph, path string) error {
	if err := x.repo.Save(g, path); err != nil {
		return err
	}
	fmt.Fprintf(x.out, "Saved %s (%d nodes, %d edges)\n", path, g.Len(), len(g.Edges()))
	return nil
}

// readURLList returns the non-blank lines of path that are not # comments.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}
