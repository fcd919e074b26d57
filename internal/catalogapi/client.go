package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/observability/tracing"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxBodyBytes bounds response reads; records carry inline image data.
const maxBodyBytes = 32 << 20

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *metrics.HTTPMetrics `optional:"true"`
}

// Client talks to the remote product REST API.
type Client struct {
	base       *url.URL
	paths      config.CatalogAPIConfig
	httpClient *http.Client
	log        *zap.Logger
	metrics    *metrics.HTTPMetrics
	maxBody    int64
}

func New(p Params) (*Client, error) {
	httpClient := tracing.WrapHTTPClient(&http.Client{Timeout: p.Config.CatalogAPI.Timeout})
	return NewClient(p.Config.CatalogAPI, httpClient, p.Log, p.Metrics)
}

// NewClient builds a client with an explicit http.Client, used by tests.
func NewClient(cfg config.CatalogAPIConfig, httpClient *http.Client, log *zap.Logger, m *metrics.HTTPMetrics) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:       base,
		paths:      cfg,
		httpClient: httpClient,
		log:        log.Named("catalogapi"),
		metrics:    m,
		maxBody:    maxBodyBytes,
	}, nil
}

// List fetches one page of products.
func (c *Client) List(ctx context.Context, q domain.ListQuery) (domain.PagedResult, error) {
	var out domain.PagedResult
	if err := c.do(ctx, "list", http.MethodGet, c.paths.ListPath, 0, q.Values(), nil, &out); err != nil {
		return domain.PagedResult{}, err
	}
	if out.Content == nil {
		out.Content = []domain.Record{}
	}
	return out, nil
}

// Get fetches a single product by id.
func (c *Client) Get(ctx context.Context, id int64) (domain.Record, error) {
	var out domain.Record
	if err := c.do(ctx, "get", http.MethodGet, c.paths.GetPath, id, nil, nil, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// Create posts a new product. The returned record is the server's echo when
// it sent one, otherwise the submitted record.
func (c *Client) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	out := record
	if err := c.do(ctx, "create", http.MethodPost, c.paths.CreatePath, 0, nil, record, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

// Update replaces an existing product.
func (c *Client) Update(ctx context.Context, id int64, record domain.Record) (domain.Record, error) {
	out := record
	if err := c.do(ctx, "update", http.MethodPut, c.paths.UpdatePath, id, nil, record, &out); err != nil {
		return domain.Record{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, id int64, query url.Values, body any, out any) error {
	endpoint, err := c.resolve(path, id)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("catalog api %s: encode: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	cid := correlation.InjectHeader(ctx, req.Header)

	log := logger.WithContext(ctx, c.log).With(
		zap.String("operation", op),
		zap.String("correlation_id", cid),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveCatalogCall(op, 0, time.Since(start))
		log.Warn("catalog api call failed", zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveCatalogCall(op, resp.StatusCode, time.Since(start))

	raw, err := c.readBody(resp.Body)
	if err != nil {
		log.Warn("catalog api read failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		log.Info("catalog api rejected request",
			zap.Int("status", resp.StatusCode),
			zap.Bool("structured", apiErr.Structured),
			zap.Int("sub_errors", len(apiErr.SubErrors)),
		)
		return apiErr
	}

	log.Debug("catalog api call", zap.Int("status", resp.StatusCode), zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if method == http.MethodGet {
			return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
		// write endpoints may answer with plain text; success is the status.
		log.Debug("ignoring undecodable write response", zap.Error(err))
	}
	return nil
}

// readBody reads at most maxBody bytes. A body with anything past the
// limit is an error, never a truncated payload.
func (c *Client) readBody(body io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, c.maxBody)
	}
	return raw, nil
}

func (c *Client) resolve(path string, id int64) (*url.URL, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrInvalidPath
	}
	if strings.Contains(path, "{id}") {
		if id <= 0 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidID, id)
		}
		path = strings.ReplaceAll(path, "{id}", strconv.FormatInt(id, 10))
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	endpoint := *c.base
	endpoint.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	return &endpoint, nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.APIError == nil {
		return apiErr
	}
	apiErr.Structured = true
	apiErr.Message = strings.TrimSpace(envelope.APIError.Message)
	apiErr.SubErrors = envelope.APIError.SubErrors
	return apiErr
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
