package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProbe struct {
	body []byte
	err  error
}

func (s stubProbe) Get(_ context.Context, _ string) ([]byte, error) { return s.body, s.err }

type stubRenderer struct {
	body    []byte
	err     error
	renders int
	closed  int
}

func (s *stubRenderer) Ensure(_ context.Context) error { return nil }

func (s *stubRenderer) Render(_ context.Context, _ string) ([]byte, error) {
	s.renders++
	return s.body, s.err
}

func (s *stubRenderer) Close() { s.closed++ }

type stubDetector struct{ has bool }

func (s stubDetector) HasTiles(_ []byte) bool { return s.has }

func TestFetchPageUsesProbeWhenContentPresent(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{}
	f := New(stubProbe{body: []byte("<div class=\"event-card\">x</div>")}, renderer, stubDetector{has: true}, nil)

	page, err := f.FetchPage(context.Background(), "https://goout.net/cs/praha/akce/")
	require.NoError(t, err)
	assert.False(t, page.Rendered)
	assert.Equal(t, 0, renderer.renders)
	assert.NotEmpty(t, page.Body)
}

func TestFetchPagePromotesOnShell(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{body: []byte("<html>rendered</html>")}
	f := New(stubProbe{body: []byte("<html></html>")}, renderer, stubDetector{has: false}, nil)

	page, err := f.FetchPage(context.Background(), "https://goout.net/cs/praha/akce/")
	require.NoError(t, err)
	assert.True(t, page.Rendered)
	assert.Equal(t, 1, renderer.renders)
}

func TestFetchPagePromotesOnProbeError(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{body: []byte("<html>rendered</html>")}
	f := New(stubProbe{err: errors.New("connection refused")}, renderer, stubDetector{has: true}, nil)

	page, err := f.FetchPage(context.Background(), "https://goout.net/cs/praha/akce/")
	require.NoError(t, err)
	assert.True(t, page.Rendered)
}

func TestFetchPageRendererFailure(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{err: errors.New("nav timeout")}
	f := New(nil, renderer, nil, nil)

	_, err := f.FetchPage(context.Background(), "https://goout.net/cs/praha/akce/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "headless fetch")
}

func TestCollyProbeGet(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	probe := NewCollyProbe(ProbeConfig{UserAgent: "test-agent"})
	body, err := probe.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
}

func TestCollyProbeGetError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	probe := NewCollyProbe(ProbeConfig{})
	_, err := probe.Get(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestCollyProbeCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	probe := NewCollyProbe(ProbeConfig{})
	_, err := probe.Get(ctx, "http://127.0.0.1:0")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
