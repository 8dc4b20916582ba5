package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chainbreak/chainview/pkg/buildinfo"
	"github.com/chainbreak/chainview/pkg/config"
)

// Execute runs the chainview CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands, configures
// logging based on the --verbose flag, and executes the command tree. The
// logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "chainview",
		Short:        "ChainView visualizes transaction graphs as force-directed layouts",
		Long:         `ChainView is a tool for exploring financial transaction graphs: it lays nodes out with a force simulation, overlays community structure and threat-intelligence findings, and exports the result as images or live sessions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a chainview.toml config file")

	loadConfig := func() (config.Config, error) { return config.Load(configPath) }

	root.AddCommand(newRenderCmd(loadConfig))
	root.AddCommand(newDetectCmd(loadConfig))
	root.AddCommand(newServeCmd(loadConfig))
	root.AddCommand(newViewCmd(loadConfig))

	return root.ExecuteContext(ctx)
}
