package weather

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is where the report service listens in local development.
const DefaultBaseURL = "http://localhost:8000"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Fetcher looks up a stored weather report by id.
type Fetcher interface {
	GetReport(ctx context.Context, id string) (*Report, error)
}

// Client handles report service interactions
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	schema *jsonschema.Schema
	tracer trace.Tracer
}

// NewClient creates a report service client. A zero timeout means the
// request is bounded only by its context.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid report service url %q: %w", baseURL, err)
	}

	schema, err := compileReportSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile report schema: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		schema: schema,
		tracer: otel.Tracer("github.com/swelljoe/wxlookup/internal/weather"),
	}, nil
}

// ValidateID reports whether id is an acceptable report identifier.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ReportURL returns the per-id report endpoint.
func (c *Client) ReportURL(id string) string {
	return c.BaseURL + "/weather/" + url.PathEscape(id)
}

// GetReport fetches the report stored under id. Exactly one GET is issued
// for a valid id; none for an invalid one.
func (c *Client) GetReport(ctx context.Context, id string) (*Report, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "weather.GetReport", trace.WithAttributes(attribute.String("report.id", id)))
	defer span.End()

	report, err := c.getReport(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return report, err
}

func (c *Client) getReport(ctx context.Context, id string) (*Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ReportURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}

	report, err := decodeReport(c.schema, body)
	if err != nil {
		return nil, err
	}
	slog.Debug("weather report received", "id", id, "body", string(body))
	return report, nil
}
