package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"maisync/internal/components/chrono"
	"maisync/internal/components/telemetry"
	"maisync/internal/db"
	"maisync/internal/recordsync"
	"maisync/internal/scrapers/dxnet"
	"maisync/internal/store"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file, parent directories are searched unless given explicitly.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
}

var rootCmd = &cobra.Command{
	Use:           "maisync",
	Short:         "maisync mirrors maimai DX NET play records into a local database.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		cmd.SetContext(withApp(cmd.Context(), &app{cfg: cfg, tel: telemetry.SlogAPI{}}))
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type appKey struct{}

// app holds what every command opens lazily from the config.
type app struct {
	cfg      Config
	tel      telemetry.API
	database *sql.DB
	time     chrono.StandardTime
}

func withApp(ctx context.Context, value *app) context.Context {
	return context.WithValue(ctx, appKey{}, value)
}

func getApp(ctx context.Context) *app {
	return ctx.Value(appKey{}).(*app)
}

// openStore opens the database, applies the schema and wraps it in a store.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	t, err := chrono.NewStandardTime(a.cfg.Location)
	if err != nil {
		return store.Store{}, fmt.Errorf("config: location: %w", err)
	}
	a.time = t

	database, err := a.cfg.Database.OpenDB()
	if err != nil {
		return store.Store{}, err
	}
	err = db.Bootstrap(ctx, database)
	if err != nil {
		database.Close()
		return store.Store{}, err
	}
	a.database = database
	return store.NewStore(database, t.Location(), a.tel), nil
}

func (a *app) newEngine(ctx context.Context, notifier recordsync.Notifier) (*recordsync.Engine, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	siteCfg, err := a.cfg.dxnetConfig()
	if err != nil {
		return nil, err
	}
	site, err := dxnet.NewClient(siteCfg, a.tel)
	if err != nil {
		return nil, err
	}
	maintenance, err := a.cfg.maintenanceWindow(a.time.Location())
	if err != nil {
		return nil, err
	}
	return recordsync.NewEngine(site, st, a.time, a.tel, recordsync.Options{
		Maintenance: maintenance,
		Notifier:    notifier,
	}), nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}
