package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/wordpick/wordpick/pkg/catalog"
	"github.com/wordpick/wordpick/pkg/config"
	"github.com/wordpick/wordpick/pkg/history"
	"github.com/wordpick/wordpick/pkg/logging"
	"github.com/wordpick/wordpick/pkg/rules"
)

const cliExecutable = "wordpick"

// appEnv carries the shared dependencies built once in the root command's
// PersistentPreRunE and consumed by every subcommand.
type appEnv struct {
	cfg     config.Config
	rules   *rules.Ruleset
	store   history.Store
	catalog *catalog.FileCatalog
}

type envContextKey struct{}

func withEnv(ctx context.Context, env *appEnv) context.Context {
	return context.WithValue(ctx, envContextKey{}, env)
}

func envFrom(cmd *cobra.Command) (*appEnv, error) {
	env, ok := cmd.Context().Value(envContextKey{}).(*appEnv)
	if !ok || env == nil {
		return nil, fmt.Errorf("command environment not initialized")
	}
	return env, nil
}

// NewCommand constructs the top-level wordpick CLI command, wiring global
// flags, configuration loading, and the shared selection log.
func NewCommand() *cobra.Command {
	var (
		configFile string
		rulesFile  string
		noHistory  bool
		env        appEnv
		watcher    *catalog.Watcher
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Wordpick recommends fuzzing wordlists for discovered services",
		Long: `Wordpick scores and recommends web-content discovery wordlists for a
scanned service based on technology, port, and service banner context,
and keeps a selection log to measure recommendation diversity over time.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			manager := config.NewManager()
			if err := manager.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			env.cfg = manager.Get()

			if err := logging.Configure(env.cfg.Log.Level, env.cfg.Log.Format, env.cfg.Log.File); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			var (
				rs  *rules.Ruleset
				err error
			)
			if rulesFile != "" {
				rs, err = rules.LoadFile(rulesFile)
			} else {
				rs, err = rules.Load()
			}
			if err != nil {
				return fmt.Errorf("load rule tables: %w", err)
			}
			env.rules = rs

			if !noHistory {
				storeCfg := history.Config{WorkspaceRoot: env.cfg.History.WorkspaceRoot}
				store, err := history.NewStore(cmd.Context(), &storeCfg)
				if err != nil {
					// Scoring still works without the log; everything
					// history-backed degrades to neutral.
					log.Warn().Err(err).Msg("selection log unavailable, continuing without history")
				} else {
					env.store = store
				}
			}

			if env.catalog, err = loadCatalog(env.cfg.Catalog.Path); err != nil {
				return err
			}
			if env.cfg.Catalog.Watch {
				if env.cfg.Catalog.Path == "" {
					log.Warn().Msg("catalog.watch is set but no catalog.path is configured; the embedded inventory cannot be watched")
				} else {
					watcher, err = catalog.NewWatcher(env.catalog, env.cfg.Catalog.Path, log.Logger)
					if err != nil {
						return fmt.Errorf("create catalog watcher: %w", err)
					}
					if err := watcher.Start(); err != nil {
						return fmt.Errorf("watch catalog %q: %w", env.cfg.Catalog.Path, err)
					}
				}
			}

			ctx := withEnv(cmd.Context(), &env)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if watcher != nil {
				if err := watcher.Close(); err != nil {
					log.Warn().Err(err).Msg("failed to stop catalog watcher")
				}
			}
			if env.store != nil {
				return env.store.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "Override the embedded rule tables with a YAML file")
	cmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Disable the selection log for this run")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewRecommendCommand())
	cmd.AddCommand(NewAuditCommand())
	cmd.AddCommand(NewDiversityCommand())
	cmd.AddCommand(NewOutcomeCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadCatalog builds the wordlist inventory: a site-local file when
// configured, the embedded default otherwise. A load failure of an
// explicitly configured file is an error, not a silent degrade.
func loadCatalog(path string) (*catalog.FileCatalog, error) {
	if path != "" {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load catalog %q: %w", path, err)
		}
		return cat, nil
	}
	return catalog.Load()
}
