package jellyfin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"curator/internal/config"
	"curator/internal/faults"
	"curator/internal/logging"
)

const (
	defaultHTTPTimeout      = 30 * time.Second
	defaultPageSize         = 500
	defaultFailureThreshold = 5
	defaultBreakerTimeout   = time.Minute
	maxErrorBody            = 512
	subject                 = "jellyfin"
)

// HTTPDoer describes the HTTP client used by the Jellyfin client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Settings captures the connection parameters of one Jellyfin server.
type Settings struct {
	URL               string
	APIKey            string
	UserID            string
	RequestsPerSecond float64
	PageSize          int
	FailureThreshold  int
}

// SettingsFromConfig extracts client settings from the [jellyfin] section.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{}
	}
	return Settings{
		URL:               cfg.Jellyfin.URL,
		APIKey:            cfg.Jellyfin.APIKey,
		UserID:            cfg.Jellyfin.UserID,
		RequestsPerSecond: cfg.Jellyfin.RequestsPerSecond,
		PageSize:          cfg.Jellyfin.PageSize,
		FailureThreshold:  cfg.Jellyfin.FailureThreshold,
	}
}

// Client is a rate limited, circuit-broken Jellyfin API client.
type Client struct {
	baseURL  string
	apiKey   string
	userID   string
	pageSize int

	http    HTTPDoer
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger

	breakerTimeout time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithLogger sets the logger used for breaker transitions and request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.breakerTimeout = d
		}
	}
}

// New constructs a client for the server described by settings.
func New(settings Settings, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(settings.URL), "/")
	if baseURL == "" {
		return nil, faults.Wrap(faults.ErrInvalidInput, subject, "configure client", "url is required", nil)
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, faults.Wrap(faults.ErrInvalidInput, subject, "configure client", "invalid url", err)
	}
	apiKey := strings.TrimSpace(settings.APIKey)
	if apiKey == "" {
		return nil, faults.Wrap(faults.ErrInvalidInput, subject, "configure client", "api key is required", nil)
	}

	c := &Client{
		baseURL:        baseURL,
		apiKey:         apiKey,
		userID:         strings.TrimSpace(settings.UserID),
		pageSize:       settings.PageSize,
		http:           &http.Client{Timeout: defaultHTTPTimeout},
		breakerTimeout: defaultBreakerTimeout,
	}
	if c.pageSize <= 0 {
		c.pageSize = defaultPageSize
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "jellyfin")

	limit := rate.Inf
	burst := 1
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
		burst = max(1, int(settings.RequestsPerSecond))
	}
	c.limiter = rate.NewLimiter(limit, burst)

	threshold := settings.FailureThreshold
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "jellyfin-api",
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(c.logger, "jellyfin circuit opened", "backend_unavailable",
					logging.String("from", from.String()),
					logging.String(logging.FieldErrorHint, "check that the Jellyfin server is reachable"),
					logging.String(logging.FieldImpact, "remaining playlists will not be synced"),
				)
				return
			}
			c.logger.Info("jellyfin circuit state changed",
				logging.Args(logging.String("from", from.String()), logging.String("to", to.String()))...)
		},
	})
	return c, nil
}

// UserID returns the configured default user.
func (c *Client) UserID() string { return c.userID }

// countsAsSuccess keeps client-side problems from tripping the breaker: only
// transport failures and server errors count against the server.
func countsAsSuccess(err error) bool {
	if err == nil || faults.IsCancellation(err) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code < http.StatusInternalServerError
	}
	return false
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code      int
	Operation string
	Body      string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Operation, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Operation, e.Code, e.Body)
}

// FaultCategory implements faults.Classifier.
func (e *StatusError) FaultCategory() faults.Category {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return faults.CategoryPermissionDenied
	case http.StatusNotFound:
		return faults.CategoryItemNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return faults.CategoryInvalidInput
	case http.StatusConflict, http.StatusPreconditionFailed:
		return faults.CategoryInvalidState
	case http.StatusNotImplemented, http.StatusMethodNotAllowed:
		return faults.CategoryUnsupportedOperation
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return faults.CategoryTimeout
	default:
		return faults.CategoryUnknown
	}
}

// request describes one API call.
type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

// do sends req through the limiter and breaker and returns the response body.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s: rate limiter: %w", req.operation, err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, req)
	})
	if err == nil {
		return body, nil
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return nil, faults.Wrap(faults.ErrSystemFailure, subject, req.operation, "circuit breaker open", err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		// Half-open with a trial request in flight; the server may be back.
		return nil, faults.Wrap(faults.ErrInvalidState, subject, req.operation, "server recovering, trial request in flight", err)
	}
	return nil, err
}

func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, error) {
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var payload io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", req.operation, err)
		}
		payload = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", req.operation, err)
	}
	httpReq.Header.Set("X-Emby-Token", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return nil, faults.Wrap(faults.ErrSystemFailure, subject, req.operation, "server unreachable", err)
		}
		return nil, fmt.Errorf("%s: %w", req.operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", req.operation, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		text := strings.TrimSpace(string(data))
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Operation: req.operation, Body: text}
	}
	return data, nil
}

func decode[T any](operation string, data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, faults.Wrap(faults.ErrInvalidState, subject, operation, "decode response", err)
	}
	return out, nil
}

func itoa(n int) string { return strconv.Itoa(n) }
