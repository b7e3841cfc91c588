// Package cmd assembles the birdnet-annotations command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-annotations/cmd/aoefimport"
	"github.com/tphakala/birdnet-annotations/cmd/user"
	"github.com/tphakala/birdnet-annotations/internal/app"
	"github.com/tphakala/birdnet-annotations/internal/conf"
)

// RootCommand creates and returns the root command. The caller closes
// appCtx after execution.
func RootCommand(appCtx *app.Context) *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "birdnet-annotations",
		Short:         "Import AOEF annotation projects and datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd, &configFile, &appCtx.MetricsTextfile)

	rootCmd.AddCommand(
		aoefimport.Command(appCtx),
		user.Command(appCtx),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		v, err := conf.NewViper()
		if err != nil {
			return err
		}
		if err := bindFlags(v, cmd); err != nil {
			return err
		}

		settings, err := conf.Load(v, configFile)
		if err != nil {
			return err
		}
		appCtx.Settings = settings

		return appCtx.Initialize(cmd.Context())
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, configFile, metricsTextfile *string) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(configFile, "config", "c", "", "Path to config file (default ./config.yaml)")
	flags.StringVar(metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("db-type", conf.DatabaseSQLite, "Database backend: sqlite or mysql")
	flags.String("db", "annotations.db", "Path to the SQLite database")
	flags.String("base-dir", ".", "Base audio directory recording paths are stored relative to")
	flags.Int("batch-size", 500, "Rows per INSERT statement")
	flags.Int("concurrency", 2, "Files imported in parallel")
}

// flagKeys maps global flags to their configuration keys.
var flagKeys = map[string]string{
	"debug":       "debug",
	"db-type":     "database.type",
	"db":          "database.sqlite.path",
	"base-dir":    "audio.basedir",
	"batch-size":  "import.batchsize",
	"concurrency": "import.concurrency",
}

// bindFlags lets explicitly set flags take precedence over config and env.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}
