package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okabe-dev/opsbridge/internal/schema"
)

// UnknownServiceError means the handler descriptor names a service that
// is not in the service registry. This is a configuration error and is
// never retried.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q in handler descriptor", e.Service)
}

// TimeoutError means the backend did not answer within the schema's
// timeout_ms budget.
type TimeoutError struct {
	Service  string
	Endpoint string
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service %q timed out after %s on %s", e.Service, e.Timeout, e.Endpoint)
}

// ServiceError carries a non-2xx response from the backend.
type ServiceError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %q returned HTTP %d: %s", e.Service, e.StatusCode, e.Body)
}

// Dispatcher holds one persistent HTTP client per backend service. The
// client map is built eagerly at construction and is read-only afterward;
// CloseAll releases idle connections on the shutdown path.
type Dispatcher struct {
	clients map[string]*serviceClient
}

type serviceClient struct {
	baseURL string
	http    *http.Client
}

// NewDispatcher builds clients for every entry of the service registry.
func NewDispatcher(services map[string]string) *Dispatcher {
	clients := make(map[string]*serviceClient, len(services))
	for name, baseURL := range services {
		clients[name] = &serviceClient{
			baseURL: baseURL,
			http:    &http.Client{},
		}
	}
	return &Dispatcher{clients: clients}
}

// Dispatch POSTs the validated parameters as a JSON body to the schema's
// handler endpoint, bounded by the schema's timeout. The raw 2xx body is
// returned for normalization; failures come back as typed errors.
func (d *Dispatcher) Dispatch(ctx context.Context, s *schema.ActionSchema, params map[string]any) (json.RawMessage, error) {
	client, ok := d.clients[s.Handler.Service]
	if !ok {
		return nil, &UnknownServiceError{Service: s.Handler.Service}
	}

	timeout := time.Duration(s.Handler.TimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+s.Handler.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Service: s.Handler.Service, Endpoint: s.Handler.Endpoint, Timeout: timeout}
		}
		return nil, fmt.Errorf("dispatch to %q failed: %w", s.Handler.Service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %q: %w", s.Handler.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{Service: s.Handler.Service, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return json.RawMessage(raw), nil
}

// CloseAll releases every service client. Called once on shutdown.
func (d *Dispatcher) CloseAll() {
	for _, c := range d.clients {
		c.http.CloseIdleConnections()
	}
}
