// Package pandascore is the live odds provider backed by the PandaScore REST API.
package pandascore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/markets"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
	"github.com/Vodeneev/oddsedge/internal/pkg/ratelimit"
)

// Options configures the provider.
type Options struct {
	BaseURL     string
	Token       string
	AuthMode    string
	Game        string
	Leagues     []string
	MarketKinds []models.MarketKind
	PageSize    int
	Timeout     time.Duration
	MaxRetries  int
	BackoffUnit time.Duration
	Cooldown    time.Duration
	Limiter     *ratelimit.Window
	Normalizer  *markets.Normalizer
}

// Provider fetches League of Legends matches with odds from PandaScore.
type Provider struct {
	client     *Client
	game       string
	leagues    []string
	kinds      []models.MarketKind
	pageSize   int
	normalizer *markets.Normalizer
}

// New validates opts and creates the provider. It makes no request.
func New(opts Options) (*Provider, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, &feed.ConfigError{Field: "feed.token", Reason: "PandaScore token is required"}
	}
	switch opts.AuthMode {
	case "", AuthHeader, AuthQuery:
	default:
		return nil, &feed.ConfigError{Field: "feed.auth_mode", Reason: fmt.Sprintf("unknown mode %q", opts.AuthMode)}
	}
	if opts.Game == "" {
		opts.Game = "lol"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.Normalizer == nil {
		opts.Normalizer = markets.NewNormalizer(nil)
	}

	leagues := make([]string, 0, len(opts.Leagues))
	for _, l := range opts.Leagues {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			leagues = append(leagues, l)
		}
	}

	return &Provider{
		client: NewClient(ClientOptions{
			BaseURL:     opts.BaseURL,
			Token:       opts.Token,
			AuthMode:    opts.AuthMode,
			Timeout:     opts.Timeout,
			MaxRetries:  opts.MaxRetries,
			BackoffUnit: opts.BackoffUnit,
			Cooldown:    opts.Cooldown,
			Limiter:     opts.Limiter,
		}),
		game:       opts.Game,
		leagues:    leagues,
		kinds:      opts.MarketKinds,
		pageSize:   opts.PageSize,
		normalizer: opts.Normalizer,
	}, nil
}

// Name implements feed.Provider.
func (p *Provider) Name() string { return "pandascore" }

// FetchByStatus implements feed.Provider. When the feed rejects the
// league filter the request is repeated once without it and leagues are
// filtered locally.
func (p *Provider) FetchByStatus(ctx context.Context, status models.Status) []models.MatchRecord {
	records, err := p.fetchMatches(ctx, status, p.leagues)
	var ce *feed.ClientError
	if errors.As(err, &ce) && ce.FilterRejected {
		slog.Warn("PandaScore: league filter rejected, retrying without it", "status", status, "leagues", p.leagues)
		records, err = p.fetchMatches(ctx, status, nil)
	}
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("PandaScore: fetch failed", "status", status, "error", err)
		}
		return nil
	}

	records = feed.FilterLeagues(records, p.leagues)
	return feed.FilterMarkets(records, p.kinds)
}

func (p *Provider) fetchMatches(ctx context.Context, status models.Status, leagues []string) ([]models.MatchRecord, error) {
	query := url.Values{}
	query.Set("sort", "begin_at")
	query.Set("per_page", strconv.Itoa(p.pageSize))
	if len(leagues) > 0 {
		query.Set(leagueFilterParam, strings.Join(leagues, ","))
	}

	path := fmt.Sprintf("/%s/matches/%s", p.game, status)
	body, err := p.client.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	records, skipped, err := parseMatches(body, status, p.normalizer)
	if err != nil {
		return nil, err
	}
	slog.Info("PandaScore: fetched matches",
		"status", status,
		"count", len(records),
		"skipped", skipped,
		"filtered", len(leagues) > 0)
	return records, nil
}

// FetchLeagues implements feed.Provider.
func (p *Provider) FetchLeagues(ctx context.Context) []feed.League {
	query := url.Values{}
	query.Set("per_page", "100")
	body, err := p.client.Get(ctx, fmt.Sprintf("/%s/leagues", p.game), query)
	if err != nil {
		slog.Error("PandaScore: fetch leagues failed", "error", err)
		return nil
	}
	leagues, err := parseLeagues(body)
	if err != nil {
		slog.Error("PandaScore: decode leagues failed", "error", err)
		return nil
	}
	return leagues
}
