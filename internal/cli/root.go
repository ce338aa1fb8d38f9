// Package cli provides the convo command tree.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/convohq/convo/internal/chattui"
	"github.com/convohq/convo/internal/config"
	"github.com/convohq/convo/internal/db"
	"github.com/convohq/convo/internal/gateway"
	"github.com/convohq/convo/internal/logging"
)

var (
	appConfig  *config.Config
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "convo",
	Short:         "convo terminal chat client",
	Long:          "Bubbletea-based terminal client for the convo chat service.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
}

func init() {
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runTUI()
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
}

// Execute runs the command tree.
func Execute(version string) error {
	rootCmd.Version = version
	return rootCmd.Execute()
}

// GetConfig returns the loaded configuration, or nil before PersistentPreRunE.
func GetConfig() *config.Config {
	return appConfig
}

func loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	}
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logCfg.Output = file
	}
	logging.Init(logCfg)

	appConfig = cfg
	return nil
}

func runTUI() error {
	cfg := GetConfig()

	store, err := openStateDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	session, err := db.NewSessionRepository(store).Load(rootCmd.Context())
	if err != nil {
		if errors.Is(err, db.ErrSessionNotFound) {
			return fmt.Errorf("not logged in; run `convo login` first")
		}
		return err
	}

	logging.Info().
		Int64("user_id", session.User.ID).
		Str("username", session.User.Username).
		Msg("starting TUI")

	theme := cfg.TUI.Theme
	if session.User.Theme != "" {
		theme = session.User.Theme
	}

	return chattui.Run(chattui.Config{
		User:           session.User,
		Client:         newGatewayClient(cfg),
		DB:             store,
		Theme:          theme,
		Sync:           cfg.Sync,
		ShowTimestamps: cfg.TUI.ShowTimestamps,
	})
}

func openStateDB(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return db.Open(cfg.Database.Path, cfg.Database.BusyTimeoutMs)
}

func newGatewayClient(cfg *config.Config) *gateway.Client {
	return gateway.NewClient(gateway.Config{
		Endpoints: gateway.Endpoints{
			Auth:     cfg.Endpoints.Auth,
			Chats:    cfg.Endpoints.Chats,
			Messages: cfg.Endpoints.Messages,
			Groups:   cfg.Endpoints.Groups,
			Profile:  cfg.Endpoints.Profile,
		},
	})
}
