package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/event-scraper/internal/config"
	"github.com/citypulse/event-scraper/internal/orchestrator"
	"github.com/citypulse/event-scraper/internal/scraper"
	"github.com/citypulse/event-scraper/internal/store"
	"github.com/citypulse/event-scraper/internal/store/memory"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeTrigger struct {
	summary scraper.RunSummary
	err     error

	gotCities []string
	gotLimit  int
}

func (f *fakeTrigger) Run(_ context.Context, cities []string, limit int) (scraper.RunSummary, error) {
	f.gotCities = cities
	f.gotLimit = limit
	return f.summary, f.err
}

func newTestServer(t *testing.T, trigger Trigger, st store.Store, cfg config.Config) *httptest.Server {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, time.March, 10, 3, 0, 0, 0, time.UTC)}
	srv := httptest.NewServer(NewServer(trigger, st, clock, cfg, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeTrigger{}, memory.New(), config.Config{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeTrigger{}, memory.New(), config.Config{})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTriggerRunDefaults(t *testing.T) {
	trigger := &fakeTrigger{summary: scraper.RunSummary{
		RunID:        "run-1",
		TotalScraped: 5,
		TotalSaved:   3,
		Cities:       []scraper.CityResult{{City: "praha", Scraped: 5, Saved: 3}},
	}}
	srv := newTestServer(t, trigger, memory.New(), config.Config{})

	resp, err := http.Post(srv.URL+"/v1/scraper/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, trigger.gotCities)
	assert.Equal(t, defaultRunLimit, trigger.gotLimit)

	var body runResponse
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 5, body.TotalScraped)
	assert.Equal(t, 3, body.TotalSaved)
	require.Len(t, body.Cities, 1)
	assert.Equal(t, "praha", body.Cities[0].City)
}

func TestTriggerRunWithBody(t *testing.T) {
	trigger := &fakeTrigger{}
	srv := newTestServer(t, trigger, memory.New(), config.Config{})

	resp, err := http.Post(srv.URL+"/v1/scraper/run", "application/json",
		strings.NewReader(`{"cities":["brno"],"limit":10}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"brno"}, trigger.gotCities)
	assert.Equal(t, 10, trigger.gotLimit)
}

func TestTriggerRunRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, &fakeTrigger{}, memory.New(), config.Config{})

	resp, err := http.Post(srv.URL+"/v1/scraper/run", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/scraper/run", "application/json",
		strings.NewReader(`{"limit":-1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTriggerRunConflict(t *testing.T) {
	trigger := &fakeTrigger{err: orchestrator.ErrRunInProgress}
	srv := newTestServer(t, trigger, memory.New(), config.Config{})

	resp, err := http.Post(srv.URL+"/v1/scraper/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTriggerRunFailure(t *testing.T) {
	trigger := &fakeTrigger{err: errors.New("chrome crashed")}
	srv := newTestServer(t, trigger, memory.New(), config.Config{})

	resp, err := http.Post(srv.URL+"/v1/scraper/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetStatus(t *testing.T) {
	st := memory.New()
	seedEvent(t, st, "scraped-one", store.PlatformScrapedWeb)
	seedEvent(t, st, "scraped-two", store.PlatformScrapedWeb)
	seedEvent(t, st, "manual-one", "manual")
	srv := newTestServer(t, &fakeTrigger{}, st, config.Config{})

	resp, err := http.Get(srv.URL + "/v1/scraper/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body statusResponse
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, int64(3), body.TotalEvents)
	assert.Equal(t, int64(2), body.ScrapedEvents)
	assert.Equal(t, int64(1), body.ManualEvents)
	assert.False(t, body.LastUpdate.IsZero())
}

func TestAPIKeyGuardsScraperRoutes(t *testing.T) {
	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	srv := newTestServer(t, &fakeTrigger{}, memory.New(), cfg)

	resp, err := http.Get(srv.URL + "/v1/scraper/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/scraper/status", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open for probes.
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func seedEvent(t *testing.T, st *memory.Store, slug, platform string) {
	t.Helper()
	_, err := st.InsertEvent(context.Background(), store.Event{
		Title:  slug,
		Source: store.EventSource{Platform: platform},
		SEO:    store.EventSEO{Slug: slug},
	})
	require.NoError(t, err)
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
