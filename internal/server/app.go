// Package server initializes and runs the application server: database,
// migrations, NFC reader gateway, pass signing pipeline, and the HTTP API,
// plus graceful shutdown and the periodic expired-token sweep.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Naimehossein77/gym-nfc/internal/cryptox"
	"github.com/Naimehossein77/gym-nfc/internal/logging"
	"github.com/Naimehossein77/gym-nfc/internal/nfc"
	"github.com/Naimehossein77/gym-nfc/internal/passkit"
	"github.com/Naimehossein77/gym-nfc/internal/server/config"
	"github.com/Naimehossein77/gym-nfc/internal/server/httpapi"
	"github.com/Naimehossein77/gym-nfc/internal/server/models"
	"github.com/Naimehossein77/gym-nfc/internal/server/repositories/repomanager"
	"github.com/Naimehossein77/gym-nfc/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	reader      *nfc.Reader

	userService      *services.UserService
	tokenService     *services.TokenService
	provisionService *services.ProvisionService
	passService      *services.PassService
}

func NewApp(cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	codec, err := cryptox.NewCodec(cfg.PayloadKey)
	if err != nil {
		return nil, fmt.Errorf("payload key error: %w", err)
	}
	if !codec.Enabled() {
		logger.Warn(context.Background(), "payload key not configured, encrypted payloads disabled")
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	reader := nfc.NewReader(nfc.Options{
		Timeout:         cfg.NFCTimeout,
		ForceSimulation: cfg.ForceNFCSimulation,
		Logger:          logger.With("module", "nfc"),
	})

	material := passkit.Material{
		CertPath:      filepath.Join(cfg.CertDir, "pass_cert.pem"),
		KeyPath:       filepath.Join(cfg.CertDir, "pass_key.pem"),
		AuthorityPath: filepath.Join(cfg.CertDir, "WWDR.pem"),
	}
	signer := passkit.NewOpenSSLSigner(material)
	builder := passkit.NewBuilder(material, signer, cfg.StaticDir, logger.With("module", "passkit"))

	return &App{
		config:           cfg,
		logger:           logger,
		db:               db,
		repomanager:      rm,
		reader:           reader,
		userService:      services.NewUserService(db, rm, cfg),
		tokenService:     services.NewTokenService(db, rm, codec),
		provisionService: services.NewProvisionService(db, rm, reader),
		passService:      services.NewPassService(builder, cfg),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startCleanupLoop sweeps expired tokens on the configured interval until
// ctx is done. Interval zero disables the loop.
func (app *App) startCleanupLoop(ctx context.Context) {
	if app.config.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(app.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := app.tokenService.CleanupExpired(ctx)
			if err != nil {
				app.logger.Error(ctx, "token cleanup failed", "error", err.Error())
				continue
			}
			if count > 0 {
				app.logger.Info(ctx, "expired tokens deactivated", "count", count)
			}
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:      app.userService,
		Tokens:    app.tokenService,
		Provision: app.provisionService,
		Gateway:   app.reader,
		Pass:      app.passService,
		JWTSecret: []byte(app.config.JWTSecretKey),
		Logger:    app.logger.With("module", "http"),
	})

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migration error", "error", err.Error())
		return
	}

	created, err := app.userService.EnsureAccount(ctx, app.config.AdminUsername, app.config.AdminPassword, models.RoleAdmin)
	if err != nil {
		app.logger.Error(ctx, "admin account bootstrap error", "error", err.Error())
		return
	}
	if created {
		app.logger.Warn(ctx, "default admin account created, change its password", "username", app.config.AdminUsername)
	}

	if connected := app.reader.Probe(ctx); !connected {
		app.logger.Warn(ctx, "no hardware reader detected, running in simulation mode")
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startCleanupLoop(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.reader.Close(); err != nil {
		app.logger.Error(ctx, "reader close error", "error", err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
