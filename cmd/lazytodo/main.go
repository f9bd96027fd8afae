// Package main implements the lazytodo CLI.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/modal"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/Joseda-hg/lazytodo/internal/session"
	"github.com/Joseda-hg/lazytodo/internal/theme"
	"github.com/Joseda-hg/lazytodo/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var (
	configPathFlag string
	dbPathFlag     string
	apiURLFlag     string
)

var rootCmd = &cobra.Command{
	Use:          "lazytodo",
	Short:        "A terminal client for your todo list",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "", "sqlite db path")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api", "", "backend API base URL")
}

// app holds everything a command needs once the config is resolved.
type app struct {
	cfg      config.Config
	cfgPath  string
	logger   *logging.Logger
	sqlDB    *sql.DB
	storage  *db.Store
	sessions *session.Store
	client   *api.Client
}

func openApp() (*app, error) {
	cfgPath, err := resolveConfigPath(configPathFlag)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.ApplyEnv(&cfg)
	if dbPathFlag != "" {
		cfg.DBPath = dbPathFlag
	}
	if apiURLFlag != "" {
		cfg.APIURL = apiURLFlag
	}

	logger, err := logging.Open(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if err := config.EnsureDir(cfg.DBPath); err != nil {
		logger.Close()
		return nil, err
	}
	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Close()
		return nil, err
	}
	storage := db.NewStore(sqlDB)

	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return &app{
		cfg:      cfg,
		cfgPath:  cfgPath,
		logger:   logger,
		sqlDB:    sqlDB,
		storage:  storage,
		sessions: session.NewStore(storage),
		client:   api.NewClient(cfg.APIURL, timeout, logger),
	}, nil
}

func (a *app) Close() {
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	_ = a.logger.Close()
}

// requireAuth loads the stored session, refusing expired tokens.
func (a *app) requireAuth(ctx context.Context) (*session.Auth, error) {
	auth, err := a.sessions.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, errors.New("not logged in, run `lazytodo login` first")
	}
	if err != nil {
		return nil, err
	}
	if auth.Expired(time.Now()) {
		a.logger.Infof("session for %s expired at %s", auth.User().Username, auth.ExpiresAt())
		if err := a.sessions.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, errors.New("session expired, run `lazytodo login` again")
	}
	return auth, nil
}

// workspace is the list engine and modal set bound to one session.
type workspace struct {
	gateway *api.Gateway
	notices *notify.Center
	engine  *listview.Engine
	modals  *modal.Set
}

func (a *app) newWorkspace(auth *session.Auth) *workspace {
	gateway := a.client.For(auth)
	notices := notify.NewCenter(a.logger)
	engine := listview.New(gateway, gateway, notices, a.logger)
	engine.SetState(a.cfg.ViewState())
	return &workspace{
		gateway: gateway,
		notices: notices,
		engine:  engine,
		modals:  modal.NewSet(gateway, engine, notices, a.logger),
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	auth, err := a.requireAuth(ctx)
	if err != nil {
		return err
	}

	dark, err := theme.Load(ctx, a.storage)
	if err != nil {
		return err
	}

	ws := a.newWorkspace(auth)
	a.logger.Infof("starting tui for %s against %s", auth.User().Username, a.client.BaseURL())
	return tui.Run(ctx, tui.Deps{
		Engine:  ws.engine,
		Modals:  ws.modals,
		Notices: ws.notices,
		Storage: a.storage,
		User:    auth.User(),
		Dark:    dark,
		Logger:  a.logger,
	})
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
