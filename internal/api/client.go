package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/Alexander-D-Karpov/sleeves/internal/config"
	"github.com/Alexander-D-Karpov/sleeves/internal/metrics"
)

type Operation string

const (
	OpInventory  Operation = "inventory"
	OpSleeves    Operation = "sleeves"
	OpOpenSleeve Operation = "open_sleeve"
	OpSession    Operation = "session"
	OpLogin      Operation = "login"
	OpRegister   Operation = "register"
	OpLogout     Operation = "logout"
)

type route struct {
	method string
	path   string
}

var routes = map[Operation]route{
	OpInventory:  {http.MethodGet, "/api/inventory/"},
	OpSleeves:    {http.MethodGet, "/api/sleeves/"},
	OpOpenSleeve: {http.MethodPost, "/api/sleeves/%s/open"},
	OpSession:    {http.MethodGet, "/api/auth/session/"},
	OpLogin:      {http.MethodPost, "/api/auth/login/"},
	OpRegister:   {http.MethodPost, "/api/auth/register/"},
	OpLogout:     {http.MethodPost, "/api/auth/logout/"},
}

// Request names an operation; SleeveID is only used by OpOpenSleeve.
type Request struct {
	Op       Operation
	SleeveID string
	Body     interface{}
}

func (r Request) path() (route, string, bool) {
	rt, ok := routes[r.Op]
	if !ok {
		return route{}, "", false
	}
	if r.Op == OpOpenSleeve {
		return rt, fmt.Sprintf(rt.path, url.PathEscape(r.SleeveID)), true
	}
	return rt, rt.path, true
}

type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
	metrics    *metrics.Metrics

	mu            sync.Mutex
	requestCount  int64
	errorCount    int64
	lastRequestAt time.Time
}

func NewClient(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	// One attempt per call; what happens after a failure is the caller's decision.
	retryClient.RetryMax = 0
	retryClient.CheckRetry = noRetry
	retryClient.HTTPClient.Timeout = cfg.RequestTimeout()
	retryClient.HTTPClient.Jar = jar
	retryClient.Logger = nil

	if cfg.Debug {
		retryClient.Logger = &leveledLogger{s: logger.Named("http").Sugar()}
	}

	limiter := rate.NewLimiter(
		rate.Limit(cfg.API.RateLimit.RequestsPerSecond),
		cfg.API.RateLimit.BurstSize,
	)

	client := &Client{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		httpClient: retryClient,
		limiter:    limiter,
		userAgent:  cfg.API.UserAgent,
		logger:     logger.Named("api"),
		metrics:    m,
	}

	client.logger.Debug("api client initialized", zap.String("base_url", client.baseURL))

	return client, nil
}

func noRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, err
}

type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, keysAndValues...)
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, keysAndValues...)
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, keysAndValues...)
}

// Call performs a single round trip for req. It never retries and never
// returns a Go error: every failure is classified into Result.Err.
func (c *Client) Call(ctx context.Context, req Request) Result {
	start := time.Now()
	res := c.do(ctx, req)
	c.record(res, time.Since(start))
	return res
}

func (c *Client) do(ctx context.Context, req Request) Result {
	rt, path, ok := req.path()
	if !ok {
		return transportError(req.Op, "unknown operation %q", req.Op)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return transportError(req.Op, "rate limit wait: %v", err)
	}

	var reqBody io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return transportError(req.Op, "marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	fullURL := c.baseURL + path
	httpReq, err := retryablehttp.NewRequestWithContext(ctx, rt.method, fullURL, reqBody)
	if err != nil {
		return transportError(req.Op, "create request: %v", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("request",
		zap.String("op", string(req.Op)),
		zap.String("method", rt.method),
		zap.String("url", fullURL),
		zap.String("request_id", requestID),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return transportError(req.Op, "do request: %v", err)
	}

	responseBody, readErr := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		c.logger.Debug("close response body", zap.Error(closeErr))
	}

	res := Result{Op: req.Op, Status: resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = &GatewayError{
			Op:     req.Op,
			Kind:   KindStatus,
			Status: resp.StatusCode,
			Detail: errorDetail(resp, responseBody),
		}
		return res
	}

	if readErr != nil {
		res.Err = &GatewayError{Op: req.Op, Kind: KindMalformed, Status: resp.StatusCode, Detail: fmt.Sprintf("read response body: %v", readErr)}
		return res
	}

	trimmed := bytes.TrimSpace(responseBody)
	if len(trimmed) > 0 && !json.Valid(trimmed) {
		res.Err = &GatewayError{Op: req.Op, Kind: KindMalformed, Status: resp.StatusCode, Detail: "response is not valid JSON"}
		return res
	}

	if len(trimmed) > 0 {
		res.Body = json.RawMessage(trimmed)
	}
	return res
}

func (c *Client) record(res Result, duration time.Duration) {
	c.mu.Lock()
	c.requestCount++
	c.lastRequestAt = time.Now()
	if !res.OK() {
		c.errorCount++
	}
	c.mu.Unlock()

	outcome := "ok"
	if !res.OK() {
		outcome = res.Err.Kind.String()
		c.logger.Debug("request failed",
			zap.String("op", string(res.Op)),
			zap.Duration("duration", duration),
			zap.Error(res.Err),
		)
	}

	if c.metrics != nil {
		c.metrics.GatewayCalls.WithLabelValues(string(res.Op), outcome).Inc()
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return map[string]interface{}{
		"total_requests":  c.requestCount,
		"total_errors":    c.errorCount,
		"error_rate":      float64(c.errorCount) / float64(max(c.requestCount, 1)) * 100,
		"last_request_at": c.lastRequestAt,
		"base_url":        c.baseURL,
	}
}
