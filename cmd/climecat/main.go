package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/meridian-labs/climecat/internal/agent"
	"github.com/meridian-labs/climecat/internal/cliconfig"
	"github.com/meridian-labs/climecat/pkg/builder"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
	"github.com/meridian-labs/climecat/pkg/version"
)

const helpDescription = `
Curate metadata catalogs for climate-model output.

climecat parses model output filenames and headers into per-experiment
datastores, verifies existing datastores against the files on disk, and
merges experiment metadata into a versioned master catalog.
`

var exampleUsage = strings.TrimSpace(`
  climecat build --build-base-path /g/data/xp65/catalogs access-om2.yaml
  climecat datastore ~/runs/1deg_jra55_ryf --family AccessOm2
  climecat versions --build-base-path /g/data/xp65/catalogs
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(lvl).With().Timestamp().Logger()
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	// resolve layers the configuration: flags over CLIMECAT_* env
	// over the TOML file over defaults.
	resolve := func(cmd *cobra.Command) error {
		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = cliconfig.DefaultConfigPath()
		}
		if cfgFile != "" && cliconfig.FileExists(cfgFile) {
			fc, err := cliconfig.LoadFileConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
				return err
			}
		}
		if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
			return err
		}
		return cfg.Validate()
	}

	root := &cobra.Command{
		Use:           "climecat",
		Short:         "Curate metadata catalogs for climate-model output",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.climecat/config.toml)")
	root.PersistentFlags().StringVar(&cfg.BuildBasePath, "build-base-path", cfg.BuildBasePath, "directory holding the versioned catalog builds")
	root.PersistentFlags().StringVar(&cfg.CatalogFile, "catalog-file", cfg.CatalogFile, "name of the master table inside a version directory")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	buildCmd := &cobra.Command{
		Use:   "build <config.yaml>...",
		Short: "Build a catalog version from build configuration files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd); err != nil {
				return err
			}
			logger := log.NewZerologAdapterWithLogger(newLogger(cfg.LogLevel))
			a := agent.New(cfg, ncfile.DefaultOpener(), logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.BuildCatalog(ctx, args)
		},
	}
	buildCmd.Flags().StringVar(&cfg.Version, "version", cfg.Version, "catalog version to build (vYYYY-MM-DD, defaults to today)")

	datastoreCmd := &cobra.Command{
		Use:   "datastore <experiment-dir>",
		Short: "Build or verify the datastore of one experiment directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd); err != nil {
				return err
			}
			if cfg.Family == "" {
				return fmt.Errorf("--family is required")
			}
			family, err := builder.Lookup(cfg.Family)
			if err != nil {
				return err
			}
			experimentDir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			logger := log.NewZerologAdapterWithLogger(newLogger(cfg.LogLevel))
			a := agent.New(cfg, ncfile.DefaultOpener(), logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Watch {
				err := a.Watch(ctx, family, experimentDir, "")
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			_, _, err = a.UseDatastore(ctx, family, experimentDir, "")
			return err
		},
	}
	datastoreCmd.Flags().StringVar(&cfg.Family, "family", cfg.Family, "model family of the experiment (e.g. AccessOm2)")
	datastoreCmd.Flags().StringVar(&cfg.DatastoreName, "datastore-name", cfg.DatastoreName, "stem of the datastore pair")
	datastoreCmd.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "keep running and re-verify on file changes")
	datastoreCmd.Flags().DurationVar(&cfg.Debounce, "debounce", cfg.Debounce, "delay before re-verifying after a change")

	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "List the available catalog versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd); err != nil {
				return err
			}

			root, err := version.LoadFile(filepath.Join(cfg.BuildBasePath, "catalog.yaml"))
			if err != nil {
				return err
			}
			scanRoot := cfg.BuildBasePath
			var pointers version.Pointers
			if root != nil {
				pointers = root.Versions
				if r, err := root.Root(); err == nil {
					scanRoot = r
				}
			}

			ids, err := version.ScanSiblings(scanRoot)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no catalog versions found")
				return nil
			}
			for i := len(ids) - 1; i >= 0; i-- {
				line := string(ids[i])
				if ids[i] == pointers.Default {
					line += " (default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	root.AddCommand(buildCmd, datastoreCmd, versionsCmd)

	if err := root.Execute(); err != nil {
		logger := newLogger(cfg.LogLevel)
		logger.Error().Err(err).Msg("climecat")
		os.Exit(1)
	}
}
