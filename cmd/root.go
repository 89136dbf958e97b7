// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/internal/config"
	"github.com/xkilldash9x/kgraph/internal/observability"
)

// defaultConfigFile is read when --config is not given. It may be absent.
const defaultConfigFile = "./kgraph.yaml"

type contextKey string

const configKey contextKey = "config"

// NewRootCommand returns a fresh command tree. The interactive shell builds
// one per line so flags never leak between invocations.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

// newRootCmd builds the command tree. The returned Config is filled in with
// the loaded configuration once a subcommand runs.
func newRootCmd() (*cobra.Command, *config.Config) {
	loaded := &config.Config{}
	var (
		cfgFile   string
		strictIDs bool
	)

	rootCmd := &cobra.Command{
		Use:   "kgraph",
		Short: "kgraph builds, merges and queries typed knowledge graphs.",
		Long: `kgraph extracts typed property graphs from text, files and web pages,
stores them as JSON documents, merges them by node identity and answers
structural and content queries over the result.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			// 1. Read the config file and environment.
			if err := initializeConfig(v, cfgFile, cmd.Flags().Changed("config")); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Build and validate the configuration.
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "kgraph"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			if cmd.Flags().Changed("strict-ids") {
				cfg.SetStrictNodeIDs(strictIDs)
			}

			// 3. Initialize the logger with the loaded config.
			observability.InitializeLogger(cfg.Logger())
			observability.GetLogger().Debug("Starting kgraph", zap.String("version", Version))

			// 4. Hand the config to subcommands through the context.
			*loaded = *cfg
			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file")
	rootCmd.PersistentFlags().BoolVar(&strictIDs, "strict-ids", false, "Reject nodes whose id is already in the graph (overrides graph.strict_node_ids)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(defaultExtractDeps()))
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newRenderCmd())
	db := NewDBProvider()
	rootCmd.AddCommand(newPublishCmd(db))
	rootCmd.AddCommand(newPullCmd(db))
	return rootCmd, loaded
}

// Execute runs the command tree under ctx and logs a failure before returning it.
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file and binds KGRAPH_* environment
// variables. A missing default config file is not an error; a missing file
// named explicitly with --config is.
func initializeConfig(v *viper.Viper, cfgFile string, explicit bool) error {
	v.SetEnvPrefix("KGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = defaultConfigFile
	}
	if !explicit {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}

	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// getConfigFromContext retrieves the configuration stored by the root command.
func getConfigFromContext(ctx context.Context) (config.Interface, error) {
	if ctx == nil {
		return nil, errors.New("no context available")
	}
	cfg, ok := ctx.Value(configKey).(config.Interface)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not found in context")
	}
	return cfg, nil
}
