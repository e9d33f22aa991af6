package pandascore

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
	"github.com/Vodeneev/oddsedge/internal/pkg/ratelimit"
)

const matchesFixture = `[
  {
    "id": 101,
    "begin_at": "2026-03-01T08:00:00Z",
    "opponents": [{"opponent": {"name": "T1"}}, {"opponent": {"name": "Gen.G"}}],
    "league": {"name": "LCK", "slug": "lck"},
    "odds": [
      {"market_name": "Winner 2-way", "results": [{"odds": 1.85}, {"odds": 1.95}]},
      {"market_name": "Total Kills 28.5", "results": [{"name": "over", "odds": "2.00"}, {"name": "under", "odds": 1.80}]},
      {"market_name": "Total Corners", "results": [{"odds": 1.9}, {"odds": 1.9}]}
    ]
  },
  {
    "id": 102,
    "begin_at": "2026-03-01T10:00:00Z",
    "opponents": [{"opponent": {"name": "BLG"}}, {"opponent": {"name": "JDG"}}],
    "league": {"name": "LPL", "slug": "lpl"},
    "odds": [{"market_name": "Winner 2-way", "results": [{"odds": 2.10}, {"odds": 1.75}]}]
  },
  {
    "id": 103,
    "begin_at": null,
    "opponents": [{"opponent": {"name": "Team Liquid"}}, {"opponent": {"name": "FlyQuest"}}],
    "league": {"name": "LCS", "slug": "LCS"},
    "odds": []
  }
]`

// newTestProvider returns a provider pointed at srv with millisecond backoffs.
func newTestProvider(t *testing.T, srv *httptest.Server, leagues []string, limiter *ratelimit.Window) *Provider {
	t.Helper()
	p, err := New(Options{
		BaseURL:     srv.URL,
		Token:       "secret",
		Leagues:     leagues,
		MaxRetries:  3,
		BackoffUnit: time.Millisecond,
		Cooldown:    5 * time.Millisecond,
		Timeout:     2 * time.Second,
		Limiter:     limiter,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew_MissingToken(t *testing.T) {
	_, err := New(Options{Token: "  "})
	var ce *feed.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("New without token: err = %v, want *feed.ConfigError", err)
	}
	if ce.Field != "feed.token" {
		t.Errorf("ConfigError.Field = %q", ce.Field)
	}
}

func TestNew_UnknownAuthMode(t *testing.T) {
	_, err := New(Options{Token: "x", AuthMode: "cookie"})
	var ce *feed.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want *feed.ConfigError", err)
	}
}

func TestFetchByStatus_ParsesAndNormalizes(t *testing.T) {
	var gotAuth, gotPath, gotSort string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotSort = r.URL.Query().Get("sort")
		w.Write([]byte(matchesFixture))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	recs := p.FetchByStatus(context.Background(), models.StatusUpcoming)

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/lol/matches/upcoming" {
		t.Errorf("path = %q", gotPath)
	}
	if gotSort != "begin_at" {
		t.Errorf("sort = %q", gotSort)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}

	t1 := recs[0]
	if t1.ID != "101" || t1.Name() != "T1 vs Gen.G" || t1.LeagueSlug != "lck" || t1.Status != models.StatusUpcoming {
		t.Errorf("unexpected record %+v", t1)
	}
	if len(t1.Markets) != 2 {
		t.Fatalf("T1 markets = %d, want 2 (corners dropped)", len(t1.Markets))
	}
	ml := t1.Markets[models.MarketKey{Kind: models.KindWinner}]
	if p, ok := ml.Side("Gen.G"); !ok || p.Value != 1.95 {
		t.Errorf("Gen.G price = %+v, %v", p, ok)
	}
	kills := t1.Markets[models.MarketKey{Kind: models.KindTotalKills, Line: 28.5}]
	if kills.Over.Value != 2.00 || kills.Under.Value != 1.80 {
		t.Errorf("kills quote = %+v", kills)
	}

	if recs[2].LeagueSlug != "lcs" {
		t.Errorf("slug not lower-cased: %q", recs[2].LeagueSlug)
	}
	if !recs[2].BeginAt.IsZero() {
		t.Errorf("null begin_at should stay zero, got %v", recs[2].BeginAt)
	}
	if recs[2].HasQuotes() {
		t.Error("record without odds reports quotes")
	}
}

func TestFetchByStatus_QueryTokenMode(t *testing.T) {
	var gotToken, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p, err := New(Options{BaseURL: srv.URL, Token: "abc", AuthMode: AuthQuery})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.FetchByStatus(context.Background(), models.StatusRunning)
	if gotToken != "abc" || gotAuth != "" {
		t.Errorf("token=%q auth=%q, want query token only", gotToken, gotAuth)
	}
}

func TestFetchByStatus_ServerErrorsExhaustRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	limiter := ratelimit.NewWindow(100, time.Hour)
	p := newTestProvider(t, srv, nil, limiter)
	recs := p.FetchByStatus(context.Background(), models.StatusRunning)

	if len(recs) != 0 {
		t.Errorf("got %d records, want empty", len(recs))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
	if n := limiter.InFlight(); n != 3 {
		t.Errorf("limiter counted %d requests, want one slot per attempt (3)", n)
	}
}

func TestFetchByStatus_RecoversAfterTransientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(matchesFixture))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	if recs := p.FetchByStatus(context.Background(), models.StatusRunning); len(recs) != 3 {
		t.Errorf("got %d records after retry, want 3", len(recs))
	}
}

func TestFetchByStatus_FilterRejectedFallsBackOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("filter[league_slug]"))
		mu.Unlock()
		if r.URL.Query().Has("filter[league_slug]") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid filter"}`))
			return
		}
		w.Write([]byte(matchesFixture))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, []string{"LCK", "lec"}, nil)
	recs := p.FetchByStatus(context.Background(), models.StatusRunning)

	if len(queries) != 2 {
		t.Fatalf("server saw %d requests, want filtered + one fallback", len(queries))
	}
	if queries[0] != "lck,lec" || queries[1] != "" {
		t.Errorf("filters sent = %q", queries)
	}
	// 3 records in the unfiltered page, only the LCK one is monitored.
	if len(recs) != 1 || recs[0].LeagueSlug != "lck" {
		t.Errorf("client-side filter kept %+v", recs)
	}
}

func TestFetchByStatus_BadRequestWithoutFilterIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	if recs := p.FetchByStatus(context.Background(), models.StatusUpcoming); len(recs) != 0 {
		t.Errorf("got %d records, want empty", len(recs))
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFetchByStatus_RateLimitCooldown(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(matchesFixture))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	start := time.Now()
	recs := p.FetchByStatus(context.Background(), models.StatusUpcoming)

	if len(recs) != 3 {
		t.Errorf("got %d records, want 3", len(recs))
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("two cooldowns of 5ms took only %v", elapsed)
	}
}

func TestFetchByStatus_RateLimitGivesUp(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	if recs := p.FetchByStatus(context.Background(), models.StatusUpcoming); len(recs) != 0 {
		t.Errorf("got %d records, want empty", len(recs))
	}
	// initial request plus one per allowed cooldown
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Errorf("server saw %d requests, want 4", n)
	}
}

func TestFetchByStatus_SkipsMalformedRecords(t *testing.T) {
	body := `[
	  {"id": 1, "opponents": [{"opponent": {"name": "T1"}}], "league": {"slug": "lck"}},
	  {"id": "not-a-number", "opponents": []},
	  {"id": 3, "opponents": [{"opponent": {"name": "G2"}}, {"opponent": {"name": "FNC"}}], "league": {"slug": "lec"},
	   "odds": [{"market_name": "Winner 2-way", "results": [{"odds": 1.65}, {"odds": {"bad": true}}]}]}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	recs := p.FetchByStatus(context.Background(), models.StatusRunning)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1 (two malformed skipped)", len(recs))
	}
	ml := recs[0].Markets[models.MarketKey{Kind: models.KindWinner}]
	if p, _ := ml.Side("FNC"); p.Quoted {
		t.Errorf("non-numeric odds should be absent, got %+v", p)
	}
	if p, _ := ml.Side("G2"); p.Value != 1.65 {
		t.Errorf("G2 price = %+v", p)
	}
}

func TestFetchByStatus_DecodesCompressedBodies(t *testing.T) {
	encoders := map[string]func([]byte) []byte{
		"gzip": func(b []byte) []byte {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			w.Write(b)
			w.Close()
			return buf.Bytes()
		},
		"br": func(b []byte) []byte {
			var buf bytes.Buffer
			w := brotli.NewWriter(&buf)
			w.Write(b)
			w.Close()
			return buf.Bytes()
		},
		"zstd": func(b []byte) []byte {
			enc, _ := zstd.NewWriter(nil)
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		},
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			payload := encode([]byte(matchesFixture))
			var acceptEnc string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				acceptEnc = r.Header.Get("Accept-Encoding")
				w.Header().Set("Content-Encoding", name)
				w.Write(payload)
			}))
			defer srv.Close()

			p := newTestProvider(t, srv, nil, nil)
			if recs := p.FetchByStatus(context.Background(), models.StatusUpcoming); len(recs) != 3 {
				t.Errorf("got %d records, want 3", len(recs))
			}
			if acceptEnc != "br, zstd, gzip" {
				t.Errorf("Accept-Encoding = %q", acceptEnc)
			}
		})
	}
}

func TestFetchByStatus_ContextCancelledStopsRetrying(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := New(Options{BaseURL: srv.URL, Token: "x", MaxRetries: 5, BackoffUnit: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if recs := p.FetchByStatus(ctx, models.StatusRunning); len(recs) != 0 {
		t.Errorf("got %d records, want empty", len(recs))
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("server saw %d requests, want 1 before the backoff was cancelled", n)
	}
}

func TestFetchByStatus_MarketKindsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(matchesFixture))
	}))
	defer srv.Close()

	p, err := New(Options{BaseURL: srv.URL, Token: "x", MarketKinds: []models.MarketKind{models.KindTotalKills}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	recs := p.FetchByStatus(context.Background(), models.StatusUpcoming)
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if len(recs[0].Markets) != 1 {
		t.Errorf("T1 kept %d markets, want only kills", len(recs[0].Markets))
	}
}

func TestFetchLeagues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lol/leagues" || r.URL.Query().Get("per_page") != "100" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"id":1,"name":"LCK","slug":"lck"},{"id":2,"name":"LEC","slug":"LEC"}]`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv, nil, nil)
	leagues := p.FetchLeagues(context.Background())
	if len(leagues) != 2 || leagues[1].Slug != "lec" {
		t.Errorf("leagues = %+v", leagues)
	}
}
