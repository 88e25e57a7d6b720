// Package cli implements the eventbus command: inspecting persisted
// bindings and serving a bus with its admin endpoints.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/eventbus/pkg/eventbus/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Execute runs the command line with os.Args.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// app carries state shared by subcommands.
type app struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	cmd := &cobra.Command{
		Use:           "eventbus",
		Short:         "In-process event bus tooling",
		Long:          "eventbus inspects persisted handler bindings and serves a bus with admin endpoints.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "settings file (.yaml, .yml, or .json)")
	flags.String("driver", "", "registry driver: memory, locked, sqlite, or postgres")
	flags.String("db", "", "sqlite database path")
	flags.String("dsn", "", "postgres connection string")
	flags.String("log-level", "", "log level: debug, info, warn, or error")

	bind := map[string]string{
		"registry.driver": "driver",
		"registry.path":   "db",
		"registry.dsn":    "dsn",
		"log.level":       "log-level",
	}
	for key, flag := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newBindingsCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

// newViper layers defaults, then the settings file, then EVENTBUS_*
// environment variables, then flags.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("EVENTBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := config.DefaultSettings()
	v.SetDefault("log.level", strings.ToLower(d.LogLevel.String()))
	v.SetDefault("log.format", d.LogFormat)
	v.SetDefault("pool.workers", d.PoolWorkers)
	v.SetDefault("observability.metrics", d.Metrics)
	v.SetDefault("observability.tracing", d.Tracing)
	v.SetDefault("registry.driver", d.RegistryDriver)
	v.SetDefault("registry.path", d.RegistryPath)
	v.SetDefault("registry.dsn", d.RegistryDSN)
	return v
}

// settings resolves the layered configuration into validated Settings.
func (a *app) settings() (config.Settings, error) {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
		if err := a.v.ReadInConfig(); err != nil {
			return config.Settings{}, fmt.Errorf("read config: %w", err)
		}
	}
	return config.SettingsFrom(config.New(a.v.AllSettings()))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the eventbus version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventbus %s\n", Version)
		},
	}
}
