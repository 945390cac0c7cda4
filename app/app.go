package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openauthhq/openauth/config"
	"github.com/openauthhq/openauth/database"
	"github.com/openauthhq/openauth/handlers"
	"github.com/openauthhq/openauth/server"
	"github.com/openauthhq/openauth/services/client"
	"github.com/openauthhq/openauth/services/developer"
	"github.com/openauthhq/openauth/services/emailotp"
	"github.com/openauthhq/openauth/services/logging"
	"github.com/openauthhq/openauth/services/mail"
	"github.com/openauthhq/openauth/services/totp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

type App struct {
	fx     *fx.App
	logger *logging.Service
}

// New assembles the service: config, logging, database with all persisted
// models, domain services, HTTP handlers and the echo server lifecycle.
func New(cfg *config.Config) *App {
	a := &App{}

	a.fx = fx.New(
		config.NewProvider(cfg),
		logging.Module,
		fx.Supply(database.WithModels(
			&developer.Developer{},
			&developer.App{},
			&client.Client{},
			&totp.TOTPDevice{},
			&emailotp.EmailOTP{},
		)),
		database.Module,
		mail.Module,
		developer.Module,
		client.Module,
		totp.Module,
		emailotp.Module,
		handlers.Module,
		server.NewProvider(),
		fx.Populate(&a.logger),
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Logger()}
		}),
	)

	return a
}

func (a *App) Start() error {
	return a.fx.Start(context.Background())
}

func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	if a.logger != nil {
		a.logger.Info("Received shutdown signal, stopping gracefully...")
	} else {
		log.Printf("Received signal %v, shutting down gracefully...", sig)
	}

	a.Stop()
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("Failed to stop application gracefully")
		} else {
			log.Printf("Failed to stop application gracefully: %v", err)
		}
	}

	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
