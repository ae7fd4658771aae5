package grafana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	e "github.com/ukcloud/grafana-provisioner/pkg/error"
	"go.uber.org/zap"
)

const (
	EndpointDatasources     = "/api/datasources"
	EndpointDashboards      = "/api/dashboards/db"
	EndpointDashboardImport = "/api/dashboards/import"
	EndpointHealth          = "/api/health"

	contentTypeJSON = "application/json"
)

//go:generate mockery --name=Requester --output=mocks --case=underscore
type Requester interface {
	Do(ctx context.Context, endpoint, method string, body interface{}) Result
	Close() error
}

type ClientOption func(*Client)

func WithLogger(logger *zap.SugaredLogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// Client talks to the Grafana HTTP API. Base URL and headers are bound once.
type Client struct {
	baseURL    string
	headers    http.Header
	httpClient *http.Client
	logger     *zap.SugaredLogger
	closeOnce  sync.Once
}

func NewClient(baseURL, token string, opts ...ClientOption) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errors.Wrapf(err, "invalid Grafana URL '%s'", baseURL)
	}
	headers := http.Header{}
	headers.Set("Accept", contentTypeJSON)
	headers.Set("Content-Type", contentTypeJSON)
	headers.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headers:    headers,
		httpClient: &http.Client{},
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Request sends the body to the endpoint and returns the decoded JSON response.
// Bodies of type []byte, string or json.RawMessage are sent as they are, everything else is JSON encoded.
func (c *Client) Request(ctx context.Context, endpoint, method string, body interface{}) (interface{}, error) {
	if method != http.MethodGet && method != http.MethodPost {
		return nil, &e.InvalidMethodError{Method: method}
	}

	payload, err := encode(body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode payload for %s %s", method, endpoint)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create request %s %s", method, endpoint)
	}
	for name, values := range c.headers {
		req.Header[name] = values
	}

	c.logger.Debugf("Sending %s request to %s (%d bytes)", method, endpoint, len(payload))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &e.APIError{Method: method, Endpoint: endpoint, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("Failed to close response body of %s %s: %s", method, endpoint, err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &e.APIError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	c.logger.Debugf("Received '%d' HTTP response code from %s %s: %s", resp.StatusCode, method, endpoint, string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &e.APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, nil
	}
	var decoded interface{}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, &e.APIError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			Err:        errors.Wrap(err, "response is not valid JSON"),
		}
	}
	return decoded, nil
}

// Do is Request with the outcome captured as Result.
func (c *Client) Do(ctx context.Context, endpoint, method string, body interface{}) Result {
	start := time.Now()
	resp, err := c.Request(ctx, endpoint, method, body)
	return Result{
		Method:   method,
		Endpoint: endpoint,
		Payload:  body,
		Response: resp,
		Err:      err,
		Duration: time.Since(start),
	}
}

// Close releases the idle connections of the underlying transport.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.httpClient.CloseIdleConnections()
		c.logger.Debug("Grafana client closed")
	})
	return nil
}

func encode(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	case string:
		return []byte(typed), nil
	default:
		return json.Marshal(body)
	}
}
