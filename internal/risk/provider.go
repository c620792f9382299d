// Package risk produces the account-level risk snapshots the execution
// runtime sizes placements against.
package risk

import (
	"context"

	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
)

// DefaultPerTradeRiskUSD is the per-trade budget cap applied when the
// config does not set one.
const DefaultPerTradeRiskUSD = 4.0

// BalanceSource supplies the available quote balance. The exchange
// client satisfies it.
type BalanceSource interface {
	Balance(ctx context.Context) (float64, error)
}

// Provider assembles risk snapshots from the live balance and the
// configured limits.
type Provider struct {
	config Config
	source BalanceSource
	logger *logger.Logger
}

// NewProvider creates a provider. A zero per-trade cap in the config is
// replaced with DefaultPerTradeRiskUSD.
func NewProvider(config Config, source BalanceSource, log *logger.Logger) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.RiskPerTradeUsd == 0 {
		config.RiskPerTradeUsd = DefaultPerTradeRiskUSD
	}

	return &Provider{
		config: config,
		source: source,
		logger: log,
	}, nil
}

// Snapshot returns the current risk view: live balance from the source,
// committed risk from the caller, limits from config.
func (p *Provider) Snapshot(ctx context.Context, openRiskUsd float64) (types.RiskSnapshot, error) {
	balance, err := p.source.Balance(ctx)
	if err != nil {
		return types.RiskSnapshot{}, err
	}

	snapshot := types.RiskSnapshot{
		Balance:           balance,
		RiskPerTradeUsd:   p.config.RiskPerTradeUsd,
		TotalOpenRiskUsd:  openRiskUsd,
		MaxAllowedRiskUsd: p.config.MaxAllowedRiskUsd,
		MaxPositions:      p.config.MaxPositions,
	}

	p.logger.Debug("risk snapshot",
		zap.Float64("balance", snapshot.Balance),
		zap.Float64("open_risk", snapshot.TotalOpenRiskUsd),
		zap.Float64("max_allowed_risk", snapshot.MaxAllowedRiskUsd))

	return snapshot, nil
}
