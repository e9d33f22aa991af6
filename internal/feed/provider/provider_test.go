package provider

import (
	"errors"
	"testing"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.Config)
		wantName string
		wantErr  bool
	}{
		{"synthetic", func(c *config.Config) { c.Feed.Kind = config.ProviderSynthetic }, "synthetic", false},
		{"pandascore", func(c *config.Config) {
			c.Feed.Kind = config.ProviderPandaScore
			c.Feed.Token = "tok"
		}, "pandascore", false},
		{"pandascore without token", func(c *config.Config) { c.Feed.Kind = config.ProviderPandaScore }, "", true},
		{"unknown kind", func(c *config.Config) { c.Feed.Kind = "oddsapi" }, "", true},
		{"unknown market type", func(c *config.Config) { c.Feed.MarketTypes = []string{"CORNERS"} }, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			p, err := New(cfg, nil)
			if tt.wantErr {
				var ce *feed.ConfigError
				if !errors.As(err, &ce) {
					t.Fatalf("err = %v, want *feed.ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}
