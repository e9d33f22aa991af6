// Package provider builds the configured feed.Provider variant.
package provider

import (
	"fmt"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/feed/pandascore"
	"github.com/Vodeneev/oddsedge/internal/feed/synthetic"
	"github.com/Vodeneev/oddsedge/internal/pkg/config"
	"github.com/Vodeneev/oddsedge/internal/pkg/markets"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
	"github.com/Vodeneev/oddsedge/internal/pkg/ratelimit"
)

// New returns exactly one provider for cfg.Feed.Kind. The limiter is
// shared by every request the provider makes.
func New(cfg *config.Config, limiter *ratelimit.Window) (feed.Provider, error) {
	kinds, err := marketKinds(cfg.Feed.MarketTypes)
	if err != nil {
		return nil, err
	}
	norm := markets.NewNormalizer(markets.DefaultTable)

	switch cfg.Feed.Kind {
	case config.ProviderPandaScore:
		p, err := pandascore.New(pandascore.Options{
			BaseURL:     cfg.Feed.BaseURL,
			Token:       cfg.Feed.Token,
			AuthMode:    cfg.Feed.AuthMode,
			Game:        cfg.Feed.Game,
			Leagues:     cfg.Feed.Leagues,
			MarketKinds: kinds,
			PageSize:    cfg.Feed.PageSize,
			Timeout:     cfg.RequestTimeout(),
			MaxRetries:  cfg.Feed.MaxRetries,
			BackoffUnit: cfg.BackoffUnit(),
			Cooldown:    cfg.RateLimitCooldown(),
			Limiter:     limiter,
			Normalizer:  norm,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderSynthetic:
		return synthetic.New(cfg.Feed.Leagues, kinds, norm), nil
	default:
		return nil, &feed.ConfigError{Field: "feed.kind", Reason: fmt.Sprintf("unknown provider %q", cfg.Feed.Kind)}
	}
}

func marketKinds(types []string) ([]models.MarketKind, error) {
	kinds := make([]models.MarketKind, 0, len(types))
	for _, t := range types {
		k, ok := models.ParseMarketKind(t)
		if !ok {
			return nil, &feed.ConfigError{Field: "feed.market_types", Reason: fmt.Sprintf("unknown market type %q", t)}
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
