package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
)

const DefaultTimeout = 8 * time.Second

type FailureKind string

const (
	FailureTimeout    FailureKind = "timeout"
	FailureConnection FailureKind = "connection"
	FailureOther      FailureKind = "other"
)

// CallError classifies an upstream network failure so callers can tell
// "no answer" apart from an explicit NO_NUMBER reply.
type CallError struct {
	Kind FailureKind
	URL  string
	Err  error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("provider call failed (%s): %v", e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Client issues GET requests against a server's templated URLs. It satisfies
// domain.ProviderGateway.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BuildURL substitutes the recognized placeholders into a URL template.
// Unknown placeholders are left verbatim: a misconfigured template surfaces
// as an upstream 4xx or a parse failure, never as a crash here.
func BuildURL(template string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for key, value := range fields {
		pairs = append(pairs, "{"+key+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func (c *Client) GetNumber(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig) (string, error) {
	return c.call(ctx, server, BuildURL(server.GetNumberURL, requestFields(service, "")))
}

func (c *Client) GetMessage(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	return c.call(ctx, server, BuildURL(server.GetMessageURL, requestFields(service, activationID)))
}

func (c *Client) NextMessage(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	return c.call(ctx, server, BuildURL(server.NextMessageURL, requestFields(service, activationID)))
}

func (c *Client) Cancel(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	return c.call(ctx, server, BuildURL(server.CancelURL, requestFields(service, activationID)))
}

// requestFields is the typed substitution map for one logical request.
// Several placeholder spellings map to the same field because providers
// never agreed on one.
func requestFields(service *domain.ServiceConfig, activationID string) map[string]string {
	fields := map[string]string{
		"service_code": service.ServiceCode,
		"service":      service.ServiceCode,
		"country_code": service.CountryCode,
		"country":      service.CountryCode,
		"operator":     service.Operator,
	}
	if activationID != "" {
		fields["provider_id"] = activationID
		fields["id"] = activationID
		fields["activation_id"] = activationID
	}
	return fields
}

func (c *Client) call(ctx context.Context, server *domain.ServerConfig, requestURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", &CallError{Kind: FailureOther, URL: requestURL, Err: err}
	}
	if server.HeaderName != "" {
		req.Header.Set(server.HeaderName, server.HeaderValue)
	}

	response, err := c.httpClient.Do(req)
	if err != nil {
		return "", &CallError{Kind: classify(err), URL: requestURL, Err: err}
	}
	defer response.Body.Close()

	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return "", &CallError{Kind: classify(err), URL: requestURL, Err: err}
	}

	// Providers put their status tokens in the body, not the HTTP code, so
	// the body is returned for any status the server managed to answer with.
	return string(responseBodyBytes), nil
}

func classify(err error) FailureKind {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return FailureTimeout
	}
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return FailureConnection
	}
	return FailureOther
}
