package testutils

import (
	"context"
	_ "embed"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var contractSpec []byte

// Contract checks requests against the API's OpenAPI description.
type Contract struct {
	router routers.Router

	mu         sync.Mutex
	violations []string
}

// LoadContract parses and validates the embedded API description.
func LoadContract() (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(contractSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load api contract: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid api contract: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build contract router: %w", err)
	}
	return &Contract{router: router}, nil
}

// Violations returns every request that did not match the contract.
func (c *Contract) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}

// Middleware validates each request below prefix and answers 400 on mismatch.
func (c *Contract) Middleware(prefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := c.validate(r, prefix); err != nil {
				c.mu.Lock()
				c.violations = append(c.violations, fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				c.mu.Unlock()
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "contract violation: " + err.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *Contract) validate(r *http.Request, prefix string) error {
	probe := r.Clone(r.Context())
	probe.URL.Path = strings.TrimPrefix(r.URL.Path, prefix)
	probe.URL.RawPath = ""

	route, params, err := c.router.FindRoute(probe)
	if err != nil {
		return err
	}

	opts := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "multipart/form-data" {
		// Only the shape of JSON bodies is checked; uploads are parsed by the handler.
		opts.ExcludeRequestBody = true
	}

	err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    probe,
		PathParams: params,
		Route:      route,
		Options:    opts,
	})
	// The validator drains and restores the probe body; hand it back.
	r.Body = probe.Body
	return err
}
