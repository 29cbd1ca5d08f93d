package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoResponse means the request was sent but no response arrived.
	ErrNoResponse = errors.New("no response from server")
	// ErrRequest means the request could not be built or its response could
	// not be read.
	ErrRequest = errors.New("request failed")
)

// User-facing text for the sentinel errors.
const (
	noResponseMessage = "No response from server. Please check your connection."
	requestMessage    = "An error occurred while processing your request."
)

const unknownServerError = "Unknown error occurred"

// ServerError is a non-404 failure response from the shop API.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return "Server Error: " + e.Message
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	default:
		return "error"
	}
}

// Outcome is the normalized result of one fetch.
type Outcome struct {
	Kind     OutcomeKind
	Shops    []Shop
	TotalRow int
	Err      error
}

// Fetcher issues shop-listing queries.
type Fetcher interface {
	Fetch(ctx context.Context, p Params) Outcome
}

// TokenSource yields the bearer token to attach, or "" for none.
type TokenSource interface {
	Token() string
}

// HTTPFetcher queries GET {BaseURL}/shops.
type HTTPFetcher struct {
	HTTP    *http.Client
	BaseURL string
	Tokens  TokenSource
	Log     *zap.Logger
}

func NewHTTPFetcher(client *http.Client, baseURL string, tokens TokenSource, log *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPFetcher{
		HTTP:    client,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tokens:  tokens,
		Log:     log,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, p Params) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/shops?"+p.Values().Encode(), nil)
	if err != nil {
		f.Log.Warn("build shops request", zap.Error(err))
		return failed(fmt.Errorf("%w: %v", ErrRequest, err))
	}
	req.Header.Set("Accept", "application/json")
	if f.Tokens != nil {
		if tok := f.Tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := f.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed(ctxErr)
		}
		f.Log.Warn("shops request failed", zap.Error(err))
		return failed(fmt.Errorf("%w: %v", ErrNoResponse, err))
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			f.Log.Debug("close response body", zap.Error(closeErr))
		}
	}()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return Outcome{Kind: OutcomeEmpty}
	case res.StatusCode < 200 || res.StatusCode > 299:
		msg := errorMessage(res.Body)
		f.Log.Warn("shops request rejected", zap.Int("status", res.StatusCode), zap.String("message", msg))
		return failed(&ServerError{Status: res.StatusCode, Message: msg})
	}

	var body ListResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed(ctxErr)
		}
		f.Log.Warn("decode shops response", zap.Error(err))
		return failed(fmt.Errorf("%w: %v", ErrRequest, err))
	}
	if !body.IsSuccess {
		return Outcome{Kind: OutcomeEmpty}
	}
	shops := body.Data.Shops
	if shops == nil {
		shops = []Shop{}
	}
	return Outcome{Kind: OutcomeSuccess, Shops: shops, TotalRow: body.Pagination.TotalRow}
}

func failed(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

func errorMessage(r io.Reader) string {
	var body ErrorResponse
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(&body); err != nil || body.Message == "" {
		return unknownServerError
	}
	return body.Message
}

// Message is the user-facing text for a fetch error.
func Message(err error) string {
	var se *ServerError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, ErrNoResponse):
		return noResponseMessage
	case errors.Is(err, ErrRequest):
		return requestMessage
	default:
		return err.Error()
	}
}
