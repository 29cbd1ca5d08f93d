package httpx

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transport tags every outgoing request with a request ID and logs the
// exchange at debug level.
type Transport struct {
	Base http.RoundTripper
	Log  *zap.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Log
	if log == nil {
		log = zap.NewNop()
	}

	rid := req.Header.Get(HeaderRequestID)
	if rid == "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		rid = uuid.NewString()
		req.Header.Set(HeaderRequestID, rid)
	}

	start := time.Now()
	res, err := base.RoundTrip(req)
	if err != nil {
		log.Debug("http client",
			zap.String("rid", rid),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("dur", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	log.Debug("http client",
		zap.String("rid", rid),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", res.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)
	return res, nil
}

// NewClient returns an http.Client using Transport with the given timeout.
func NewClient(timeout time.Duration, log *zap.Logger) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &Transport{Log: log},
	}
}
