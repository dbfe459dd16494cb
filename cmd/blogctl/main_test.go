package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/internal/config"
)

const overviewJSON = `{"id":%d,"author":"ana","comments":0,"contentPreview":"p","createdAt":"2024-01-01","createdByMe":false,"likedByMe":false,"likes":2,"title":"t%d","updatedAt":"2024-01-01"}`

// fakeBlogAPI serves the entries API and records the requests it saw.
type fakeBlogAPI struct {
	mu       sync.Mutex
	requests []string
	auth     []string
}

func newFakeBlogAPI(t *testing.T) (*fakeBlogAPI, string) {
	t.Helper()
	f := &fakeBlogAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/entries", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[`+overviewJSON+`],"pageIndex":%s,"pageSize":%s,"totalCount":1}`,
			1, 1, r.URL.Query().Get("page"), r.URL.Query().Get("size"))
	})
	mux.HandleFunc("GET /api/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"id":%s,"title":"t","content":"c","author":"ana","createdAt":"x","updatedAt":"x","createdByMe":true,"likedByMe":false,"likes":0,"comments":[]}`, r.PathValue("id"))
	})
	mux.HandleFunc("POST /api/entries", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/entries/{id}/like", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("DELETE /api/entries/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv.URL + "/api"
}

func (f *fakeBlogAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeBlogAPI) Auth() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

func setupEnv(t *testing.T, baseURL string) []string {
	t.Helper()
	t.Setenv("BLOG_API_BASE_URL", baseURL)
	t.Setenv("TELEMETRY_SINKS", "nop")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BLOG_ACCESS_TOKEN", "")
	return []string{"--env-file", filepath.Join(t.TempDir(), "none.env")}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	api, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)

	out, err := runCmd(t, append(flags, "list", "--page", "2", "--size", "5")...)
	require.NoError(t, err)

	var page blog.PagedEntries
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, 2, page.PageIndex)
	assert.Equal(t, 5, page.PageSize)
	require.Len(t, page.Data, 1)
	assert.Equal(t, []string{"GET /api/entries"}, api.Requests())
}

func TestGetCommand(t *testing.T) {
	_, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)

	out, err := runCmd(t, append(flags, "get", "42")...)
	require.NoError(t, err)
	var e blog.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, int64(42), e.ID)

	_, err = runCmd(t, append(flags, "get", "404")...)
	assert.ErrorIs(t, err, blog.ErrNotFound)
}

func TestMutationCommands(t *testing.T) {
	api, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)
	t.Setenv("BLOG_ACCESS_TOKEN", "tok")

	_, err := runCmd(t, append(flags, "add", "--title", "Hello", "--content", "World")...)
	require.NoError(t, err)
	_, err = runCmd(t, append(flags, "like", "3")...)
	require.NoError(t, err)
	out, err := runCmd(t, append(flags, "delete", "3")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"deleted": 3`)

	assert.Equal(t, []string{
		"POST /api/entries",
		"POST /api/entries/3/like",
		"DELETE /api/entries/3",
	}, api.Requests())
	for _, h := range api.Auth() {
		assert.Equal(t, "Bearer tok", h)
	}
}

func TestAddRejectsInvalidEntry(t *testing.T) {
	api, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)

	_, err := runCmd(t, append(flags, "add", "--title", "x", "--content", "y", "--header-image", "not a url")...)
	require.Error(t, err)
	assert.True(t, blog.IsValidation(err))
	assert.Empty(t, api.Requests())
}

func TestMetricsCommand(t *testing.T) {
	_, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)

	out, err := runCmd(t, append(flags, "metrics")...)
	require.NoError(t, err)

	var rep metricsReport
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	names := map[string]bool{}
	for _, m := range rep.Metrics {
		names[m.Name] = true
	}
	assert.True(t, names["API_GET_entries_Success"])
	assert.True(t, names["ResponseTime_ListEntries"])
	assert.True(t, names["ResultCount_ListEntries"])
	assert.Equal(t, 1, rep.Summary["API_"].Count)
	assert.Equal(t, 1, rep.Stats.CacheEntries)
}

func TestUsageErrors(t *testing.T) {
	_, base := newFakeBlogAPI(t)
	flags := setupEnv(t, base)

	_, err := runCmd(t, flags...)
	assert.ErrorContains(t, err, "missing command")

	_, err = runCmd(t, append(flags, "frobnicate")...)
	assert.Error(t, err)

	out, err := runCmd(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "blogctl")

	t.Setenv("BLOG_CACHE_SIZE", "0")
	_, err = runCmd(t, append(flags, "list")...)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestRouter(t *testing.T) {
	_, base := newFakeBlogAPI(t)
	setupEnv(t, base)
	t.Setenv("TELEMETRY_SINKS", "prometheus")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	a, err := newApp(cfg, zerolog.Nop())
	require.NoError(t, err)

	_, err = a.svc.FetchPage(context.Background(), 0, 0, false)
	require.NoError(t, err)

	srv := httptest.NewServer(a.router())
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	status, body := get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)

	status, body = get("/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `blogfront_metric_value{name="ResultCount_ListEntries",type="count"} 1`)
	assert.Contains(t, body, "blogfront_timing_milliseconds_bucket")

	status, body = get("/metrics/history?name=ResultCount_ListEntries")
	assert.Equal(t, http.StatusOK, status)
	var rep metricsReport
	require.NoError(t, json.NewDecoder(strings.NewReader(body)).Decode(&rep))
	require.Len(t, rep.Metrics, 1)
	assert.Equal(t, 1.0, rep.Metrics[0].Value)
}
