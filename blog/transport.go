package blog

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = "X-Request-ID"

// LoggingTransport tags outgoing requests with a request id and logs them at debug level.
type LoggingTransport struct {
	Base   http.RoundTripper
	Logger zerolog.Logger
}

func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}

	t.Logger.Debug().
		Str("request_id", id).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("outgoing request")

	start := time.Now()
	resp, err := base.RoundTrip(req)
	if err != nil {
		t.Logger.Debug().Str("request_id", id).Err(err).Dur("took", time.Since(start)).Msg("request failed")
		return nil, err
	}
	t.Logger.Debug().
		Str("request_id", id).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("response")
	return resp, nil
}
