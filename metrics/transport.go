package metrics

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultSlowRequest = time.Second

// InstrumentedTransport records API_{METHOD}_{endpoint}_{Success|Failure}
// timings, response sizes and slow requests for every round trip. A response
// is measured until its body has been read to EOF or closed.
type InstrumentedTransport struct {
	Base          http.RoundTripper
	Collector     *Collector
	SlowThreshold time.Duration
}

// InstrumentTransport wraps base; a nil base means http.DefaultTransport.
func InstrumentTransport(base http.RoundTripper, c *Collector, slow time.Duration) *InstrumentedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if slow <= 0 {
		slow = DefaultSlowRequest
	}
	return &InstrumentedTransport{Base: base, Collector: c, SlowThreshold: slow}
}

func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	endpoint := EndpointName(req.URL.Path)
	call := apiCall{
		t:        t,
		label:    req.Method + "_" + endpoint,
		endpoint: endpoint,
		start:    t.Collector.now(),
	}

	resp, err := t.Base.RoundTrip(req)
	if err != nil {
		call.finish(false, 0)
		return nil, err
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if resp.Body == nil || resp.Body == http.NoBody {
		call.finish(success, 0)
		return resp, nil
	}
	resp.Body = &countingBody{
		ReadCloser: resp.Body,
		done:       func(n int64) { call.finish(success, n) },
	}
	return resp, nil
}

type apiCall struct {
	t        *InstrumentedTransport
	label    string
	endpoint string
	start    time.Time
}

// finish records the call; n is the number of body bytes read.
func (a apiCall) finish(success bool, n int64) {
	c := a.t.Collector
	if elapsed := c.now().Sub(a.start); elapsed > a.t.SlowThreshold {
		c.RecordTiming("SlowRequest_"+a.label, Millis(elapsed))
	}
	c.RecordAPICall(a.label, a.start, success)
	if n > 0 {
		c.RecordCount("ResponseSize_"+a.endpoint, float64(n)/1024)
	}
}

// countingBody counts the bytes read through it and calls done once, on EOF
// or Close, whichever comes first.
type countingBody struct {
	io.ReadCloser
	n    atomic.Int64
	once sync.Once
	done func(n int64)
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n.Add(int64(n))
	if err == io.EOF {
		b.finish()
	}
	return n, err
}

func (b *countingBody) Close() error {
	err := b.ReadCloser.Close()
	b.finish()
	return err
}

func (b *countingBody) finish() {
	b.once.Do(func() { b.done(b.n.Load()) })
}

// EndpointName derives a short label from a URL path: the last segment, with
// numeric ids folded into "{parent}_id" to keep the set of names small.
func EndpointName(p string) string {
	segs := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return "root"
	}
	last := segs[len(segs)-1]
	if _, err := strconv.ParseInt(last, 10, 64); err == nil {
		if len(segs) > 1 {
			return segs[len(segs)-2] + "_id"
		}
		return "id"
	}
	return last
}
