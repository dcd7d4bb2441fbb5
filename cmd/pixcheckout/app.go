package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"pix-checkout/internal/config"
	"pix-checkout/internal/database"
	"pix-checkout/internal/infrastructure/payment"
	"pix-checkout/internal/logger"
	"pix-checkout/internal/repo"
	"pix-checkout/internal/service"
)

// app holds the wired dependencies shared by every command.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      database.Service // nil with the memory store
	service service.CheckoutService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	a := &app{cfg: cfg, log: log}

	customers, billings, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	gateway, err := newGateway(cfg.Gateway, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.service = service.NewCheckoutService(customers, billings, gateway, log)
	return a, nil
}

func (a *app) openStore(ctx context.Context) (repo.CustomerRepo, repo.BillingRepo, error) {
	if a.cfg.Store.Driver != config.StorePostgres {
		a.log.Warn().Msg("using in-memory store, data is lost on restart")
		store := repo.NewMemoryStore()
		return store, store, nil
	}

	db, err := database.New(ctx, a.cfg.Store.Database, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	a.db = db
	a.log.Info().Msg("postgres store ready")
	return repo.NewCustomerRepo(db.DB()), repo.NewBillingRepo(db.DB()), nil
}

// newGateway returns a nil interface when no credential is configured, which
// the service reports as ErrGatewayNotConfigured on every gateway call.
func newGateway(cfg config.GatewayConfig, log zerolog.Logger) (payment.Gateway, error) {
	switch {
	case cfg.Driver == config.GatewaySandbox:
		log.Warn().Msg("using sandbox payment gateway")
		return payment.NewSandboxGateway(), nil
	case cfg.APIKey == "":
		log.Warn().Msg("ABACATEPAY_API_KEY not set, checkout will fail")
		return nil, nil
	}

	client, err := payment.NewAbacatePayClient(payment.AbacatePayConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("abacatepay client: %w", err)
	}
	return client, nil
}

func (a *app) Close() {
	if a.db == nil {
		return
	}
	if err := a.db.Close(); err != nil {
		a.log.Error().Err(err).Msg("close database")
	}
}
