package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EnCirca/nomulus/internal/adminapi"
	"github.com/EnCirca/nomulus/internal/config"
	"github.com/EnCirca/nomulus/internal/flows"
	"github.com/EnCirca/nomulus/internal/history"
	"github.com/EnCirca/nomulus/internal/logging"
	"github.com/EnCirca/nomulus/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "registry-core",
		Short: "EPP registry command-processing core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	tokenCmd := &cobra.Command{
		Use:   "admin-token [subject]",
		Short: "Mint a bearer token for the administrative listing API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mintAdminToken(args[0])
		},
	}
	rootCmd.AddCommand(tokenCmd)

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address for the admin API")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().Int("retention-days", defaults.GetInt("history.retention_days"), "Commit log retention window in days")
	cmd.PersistentFlags().Int("max-transaction-attempts", defaults.GetInt("epp.max_transaction_attempts"), "Transaction attempts before contention surfaces")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("admin-signing-secret", "", "Admin API signing secret (overrides env)")
	cmd.PersistentFlags().Int("admin-token-ttl-minutes", defaults.GetInt("admin.token_ttl_minutes"), "Admin token TTL in minutes")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "history.retention_days", "retention-days")
	bindFlag(cmd, "epp.max_transaction_attempts", "max-transaction-attempts")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "admin.signing_secret", "admin-signing-secret")
	bindFlag(cmd, "admin.token_ttl_minutes", "admin-token-ttl-minutes")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func newTokenManager(appConfig config.AppConfig) *adminapi.TokenManager {
	return adminapi.NewTokenManager(adminapi.TokenManagerConfig{
		SigningSecret: []byte(appConfig.AdminSigningKey),
		Issuer:        "registry-core",
		Audience:      "registry-admin",
		TokenTTL:      appConfig.AdminTokenTTL,
	})
}

func mintAdminToken(subject string) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	token, expiresIn, err := newTokenManager(appConfig).IssueToken(subject)
	if err != nil {
		return err
	}
	fmt.Printf("%s\nexpires_in=%d\n", token, expiresIn)
	return nil
}

// services is the wired registry core. The EPP wire front end embedding
// this process drives Engine; AdminHandler is the only HTTP surface hosted
// here.
type services struct {
	Engine       *flows.Engine
	AdminHandler http.Handler
}

func buildServices(appConfig config.AppConfig, db *gorm.DB, logger *zap.Logger) (*services, error) {
	idProvider := flows.NewUUIDProvider()
	writer, err := history.NewWriter(history.WriterConfig{
		IDProvider: idProvider,
		Retention:  appConfig.Retention(),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	engine, err := flows.NewEngine(flows.EngineConfig{
		Database:      db,
		HistoryWriter: writer,
		Clock:         time.Now,
		IDProvider:    idProvider,
		Logger:        logger,
		MaxAttempts:   appConfig.MaxTxnAttempts,
	})
	if err != nil {
		return nil, err
	}

	handler, err := adminapi.NewHTTPHandler(adminapi.Dependencies{
		Database:     db,
		TokenManager: newTokenManager(appConfig),
		Clock:        time.Now,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &services{Engine: engine, AdminHandler: handler}, nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := storage.Open(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	svc, err := buildServices(appConfig, db, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: svc.AdminHandler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin api starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
