package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/warden/internal/logging"
	"github.com/aretw0/warden/pkg/domain"
	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is where the API listens in a default deployment.
const DefaultBaseURL = "http://localhost:5000/api"

const (
	// CSRFHeader carries the double-submit token on mutating requests.
	CSRFHeader = "X-CSRF-TOKEN"

	csrfAccessCookie  = "csrf_access_token"
	csrfRefreshCookie = "csrf_refresh_token"

	refreshPath = "/auth/refresh"

	maxBodySize = 10 << 20
)

// Transport performs single requests against the API.
type Transport struct {
	base    *url.URL
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Transport.
type Option func(*Transport)

// WithHTTPClient sets the underlying client; nil keeps the default. A client
// without a cookie jar gets an in-memory one, since every call depends on
// server-set cookies.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.timeout = d
	}
}

// WithLogger configures a logger for the Transport.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a Transport for baseURL (DefaultBaseURL when empty).
func NewTransport(baseURL string, opts ...Option) (*Transport, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", baseURL)
	}

	t := &Transport{
		base:   base,
		client: &http.Client{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	c := *t.client
	if c.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.Jar = jar
	}
	if t.timeout > 0 {
		c.Timeout = t.timeout
	}
	t.client = &c
	return t, nil
}

// BaseURL returns the API root every path is resolved against.
func (t *Transport) BaseURL() string {
	return t.base.String()
}

// Jar exposes the cookie jar holding the session cookies.
func (t *Transport) Jar() http.CookieJar {
	return t.client.Jar
}

// response is a fully read HTTP answer.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) apiError() *domain.APIError {
	return &domain.APIError{Status: r.status, Message: errorMessage(r.status, r.body)}
}

// decode maps non-2xx to *domain.APIError and unmarshals the body into out.
// An empty body leaves out untouched.
func (r *response) decode(out any) error {
	if !r.ok() {
		return r.apiError()
	}
	if out == nil || len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send issues one request. Transport failures come back as *domain.NetworkError;
// HTTP failures are left to the caller.
func (t *Transport) send(ctx context.Context, method, path string, body any) (*response, error) {
	op := method + " " + path
	target := t.resolve(path)

	reader, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := t.csrfToken(method, path, target); token != "" {
		req.Header.Set(CSRFHeader, token)
	}

	start := time.Now()
	res, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("Request failed", "op", op, "err", err)
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	t.logger.Debug("Request completed", "op", op, "status", res.StatusCode, "duration", time.Since(start))
	return &response{status: res.StatusCode, body: data}, nil
}

func (t *Transport) resolve(path string) *url.URL {
	u := *t.base
	u.Path = t.base.Path + "/" + strings.TrimLeft(path, "/")
	return &u
}

// csrfToken picks the anti-forgery cookie for the request, or "" when none applies.
func (t *Transport) csrfToken(method, path string, target *url.URL) string {
	if !needsCSRF(method) {
		return ""
	}
	name := csrfAccessCookie
	if path == refreshPath {
		name = csrfRefreshCookie
	}
	for _, c := range t.client.Jar.Cookies(target) {
		if c.Name == name {
			if v, err := url.QueryUnescape(c.Value); err == nil {
				return v
			}
			return c.Value
		}
	}
	return ""
}

func needsCSRF(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *multipartForm:
		return b.encode()
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// errorMessage extracts a human message from an error body: "message" (or "error",
// or the token layer's "msg") from JSON, otherwise "HTTP <status>" with any plain-text body appended.
func errorMessage(status int, body []byte) string {
	if msg, ok := bodyMessage(body); ok {
		return msg
	}
	msg := fmt.Sprintf("HTTP %d", status)
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && !json.Valid(trimmed) {
		msg += ": " + string(trimmed)
	}
	return msg
}

func bodyMessage(body []byte) (string, bool) {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	switch {
	case payload.Message != "":
		return payload.Message, true
	case payload.Error != "":
		return payload.Error, true
	case payload.Msg != "":
		return payload.Msg, true
	default:
		return "", false
	}
}
