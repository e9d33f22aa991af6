// Package feed defines the odds provider capability shared by the live
// PandaScore client and the synthetic source.
package feed

import (
	"context"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Provider fetches normalized match records for one feed status bucket.
// Implementations never return errors across this boundary: failures are
// logged and yield an empty slice.
type Provider interface {
	FetchByStatus(ctx context.Context, status models.Status) []models.MatchRecord
	FetchLeagues(ctx context.Context) []League
	Name() string
}

// League is a competition offered by the feed.
type League struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}
