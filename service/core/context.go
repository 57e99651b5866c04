package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	r "tsa/data/repos"
	c "tsa/service/api"
	av "tsa/service/api/alpha_vantage"
	"tsa/service/calculators"
	"tsa/service/sources"
)

var ErrNotConfigured = errors.New("not configured")

// ServiceContext holds the long lived connections shared by every request.
// PostgresConnection and AlphaVantageClient are nil when not configured.
type ServiceContext struct {
	Context            context.Context
	PostgresConnection *r.Postgres
	AlphaVantageClient *av.AlphaVantageClient
	PriceSource        calculators.PriceSource
	Settings           Settings
	Logger             zerolog.Logger
}

// NewServiceContext opens the connections the settings ask for. The caller
// owns the returned context and must Close it.
func NewServiceContext(ctx context.Context, settings Settings, logger zerolog.Logger) (*ServiceContext, error) {
	sc := &ServiceContext{
		Context:  ctx,
		Settings: settings,
		Logger:   logger,
	}

	if settings.AlphaVantageApiKey != "" {
		sc.AlphaVantageClient = av.GetClient(settings.AlphaVantageApiKey,
			c.WithRateLimit(settings.AvRequestsPerMinute),
			c.WithLogger(logger.With().Str("component", "alpha_vantage_client").Logger()),
		)
	}

	if settings.DatabaseUrl != "" {
		pg, err := r.GetPostgresConnection(ctx, settings.DatabaseUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		sc.PostgresConnection = pg
	}

	switch settings.PriceSource {
	case PriceSourcePostgres:
		if sc.PostgresConnection == nil {
			return nil, fmt.Errorf("postgres price source: %w", ErrNotConfigured)
		}
		sc.PriceSource = sources.NewPostgresSource(sc.PostgresConnection)
	default:
		if sc.AlphaVantageClient == nil {
			return nil, fmt.Errorf("alpha vantage price source: %w", ErrNotConfigured)
		}
		sc.PriceSource = sources.NewAlphaVantageSource(sc.AlphaVantageClient,
			sources.WithWorkers(settings.AvWorkers),
			sources.WithFrequency(settings.PriceFrequency),
			sources.WithLogger(logger.With().Str("component", "alpha_vantage_source").Logger()),
		)
	}

	logger.Info().Str("price_source", settings.PriceSource).Str("frequency", string(settings.PriceFrequency)).Bool("postgres", sc.PostgresConnection != nil).Msg("service context ready")
	return sc, nil
}

func (sc *ServiceContext) Close() {
	if sc.PostgresConnection != nil {
		sc.PostgresConnection.Close()
	}
}
