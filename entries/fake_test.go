package entries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/briangreenhill/blogfront/blog"
)

// fakeAPI is an in-memory Transport. When gate is set every call blocks until
// the gate is closed or the context ends.
type fakeAPI struct {
	mu      sync.Mutex
	gate    chan struct{}
	listErr error
	getErr  error
	mutErr  error
	pages   map[string]string
	calls   []string

	running atomic.Int64
	peak    atomic.Int64
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{pages: map[string]string{}}
}

func (f *fakeAPI) setGate() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f.gate
}

func (f *fakeAPI) enter(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.gate
	f.mu.Unlock()

	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) CallCount() int { return len(f.Calls()) }

func (f *fakeAPI) setErrs(list, get, mut error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr, f.getErr, f.mutErr = list, get, mut
}

func (f *fakeAPI) ListEntries(ctx context.Context, page, size int) ([]byte, error) {
	if err := f.enter(ctx, fmt.Sprintf("list %d %d", page, size)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	if raw, ok := f.pages[ListKey(page, size)]; ok {
		return []byte(raw), nil
	}
	return pageJSON(page, size, 1), nil
}

func (f *fakeAPI) GetEntry(ctx context.Context, id int64) ([]byte, error) {
	if err := f.enter(ctx, fmt.Sprintf("get %d", id)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return entryJSON(id), nil
}

func (f *fakeAPI) CreateEntry(ctx context.Context, e blog.NewEntry) error {
	return f.mutation(ctx, "create "+e.Title)
}

func (f *fakeAPI) LikeEntry(ctx context.Context, id int64) error {
	return f.mutation(ctx, fmt.Sprintf("like %d", id))
}

func (f *fakeAPI) DeleteEntry(ctx context.Context, id int64) error {
	return f.mutation(ctx, fmt.Sprintf("delete %d", id))
}

func (f *fakeAPI) mutation(ctx context.Context, call string) error {
	if err := f.enter(ctx, call); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutErr
}

func overview(id int64) map[string]any {
	return map[string]any{
		"id":             id,
		"author":         "ana",
		"comments":       0,
		"contentPreview": "preview",
		"createdAt":      "2024-01-01T00:00:00Z",
		"createdByMe":    false,
		"likedByMe":      false,
		"likes":          1,
		"title":          fmt.Sprintf("entry %d", id),
		"updatedAt":      "2024-01-01T00:00:00Z",
	}
}

func pageJSON(page, size, n int) []byte {
	data := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		data = append(data, overview(int64(page*size+i+1)))
	}
	raw, _ := json.Marshal(map[string]any{
		"data":       data,
		"pageIndex":  page,
		"pageSize":   size,
		"totalCount": 100,
	})
	return raw
}

func entryJSON(id int64) []byte {
	e := overview(id)
	delete(e, "contentPreview")
	e["content"] = "full content"
	e["comments"] = []any{}
	raw, _ := json.Marshal(e)
	return raw
}

// recorder collects metric names in order.
type recorder struct {
	mu    sync.Mutex
	names []string
	vals  map[string]float64
}

func (r *recorder) RecordTiming(name string, ms float64) { r.add(name, ms) }

func (r *recorder) RecordCount(name string, v float64) { r.add(name, v) }

func (r *recorder) add(name string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vals == nil {
		r.vals = map[string]float64{}
	}
	r.names = append(r.names, name)
	r.vals[name] = v
}

func (r *recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func (r *recorder) Value(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vals[name]
}

var errBackend = errors.New("backend unavailable")

func mustNoCalls(t *testing.T, f *fakeAPI, before int) {
	t.Helper()
	if got := f.CallCount(); got != before {
		t.Fatalf("expected no new API calls, got %v", f.Calls()[before:])
	}
}
