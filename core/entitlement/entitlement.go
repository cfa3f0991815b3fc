// Package entitlement answers whether the caller may open a translation
// session. The check runs before any channel is dialed.
package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const envURL = "EMA_TRANSLATE_ENTITLEMENT_URL"

// ErrUnauthorized is returned when the entitlement endpoint rejects the
// caller's credentials.
var ErrUnauthorized = errors.New("entitlement: unauthorized")

type Checker interface {
	HasPremium(ctx context.Context) (bool, error)
}

// Static is a [Checker] with a fixed answer.
type Static bool

func (s Static) HasPremium(context.Context) (bool, error) { return bool(s), nil }

// HTTPChecker asks a backend endpoint. The endpoint answers GET requests
// with {"premium": bool}.
type HTTPChecker struct {
	url    string
	token  string
	client *http.Client
}

type HTTPOption func(*HTTPChecker)

func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPChecker) {
		if client != nil {
			c.client = client
		}
	}
}

func WithToken(token string) HTTPOption {
	return func(c *HTTPChecker) { c.token = token }
}

func NewHTTPChecker(url string, opts ...HTTPOption) *HTTPChecker {
	c := &HTTPChecker{
		url:    url,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewCheckerFromEnv returns an [HTTPChecker] for EMA_TRANSLATE_ENTITLEMENT_URL,
// authenticated with EMA_TRANSLATE_TOKEN when set. Without a URL every
// caller is entitled.
func NewCheckerFromEnv() Checker {
	url, ok := os.LookupEnv(envURL)
	if !ok || url == "" {
		logger.Debug("no entitlement endpoint configured, allowing all sessions")
		return Static(true)
	}

	var opts []HTTPOption
	if token, ok := os.LookupEnv("EMA_TRANSLATE_TOKEN"); ok {
		opts = append(opts, WithToken(token))
	}
	return NewHTTPChecker(url, opts...)
}

type response struct {
	Premium bool `json:"premium"`
}

func (c *HTTPChecker) HasPremium(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "check entitlement")
	defer span.End()
	span.SetAttributes(attribute.String("request.url", c.url))

	premium, err := c.check(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("premium", premium))
	return premium, nil
}

func (c *HTTPChecker) check(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return false, fmt.Errorf("entitlement check failed (status %d): %w", resp.StatusCode, ErrUnauthorized)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("non-OK HTTP status: %s: %s", resp.Status, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("error unmarshalling response: %w", err)
	}
	return body.Premium, nil
}
