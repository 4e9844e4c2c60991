// Package ocr extracts plain text from rasterized drawings via the OCR.space
// HTTP API. Extraction is best-effort enrichment: a missing credential or a
// missing image is the normal "no OCR" path, not a failure.
package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultEndpoint = "https://api.ocr.space/parse/image"

var (
	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exammira",
		Subsystem: "ocr",
		Name:      "extract_duration_seconds",
		Help:      "Duration of OCR extraction requests",
	})

	extractFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "exammira",
		Subsystem: "ocr",
		Name:      "extract_failures_total",
		Help:      "Number of OCR extraction failures",
	})
)

// Config holds OCR.space client settings. An empty APIKey disables the client.
type Config struct {
	APIKey   string
	Endpoint string
	Language string
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Client is a thin OCR.space form-post client.
type Client struct {
	cfg    Config
	http   *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewClient builds an OCR client. Construction succeeds without a credential;
// Extract simply short-circuits until one is configured.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tracer: otel.Tracer("github.com/innova-space-edu/exam-mira-api/pkg/ocr"),
		logger: logger.With().Str("component", "ocr_client").Logger(),
	}
}

// Configured reports whether a credential was provided.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

type parseResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
}

// Extract converts a data-URL-encoded raster image into plain text. Without a
// credential or an image it returns empty text with no network call. Only the
// base64 payload after the data-URL comma is forwarded.
func (c *Client) Extract(parent context.Context, dataURL string) (string, error) {
	if !c.Configured() || strings.TrimSpace(dataURL) == "" {
		return "", nil
	}

	ctx, span := c.tracer.Start(parent, "ocr.extract")
	defer span.End()

	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}

	form := url.Values{}
	form.Set("base64Image", "data:image/png;base64,"+payload)
	form.Set("language", c.cfg.Language)
	form.Set("isTable", "true")
	form.Set("OCREngine", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("apikey", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	extractDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		extractFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("ocr request: %w", err)
	}
	defer resp.Body.Close()

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		extractFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("decode ocr response: %w", err)
	}

	if len(parsed.ParsedResults) == 0 {
		return "", nil
	}

	return parsed.ParsedResults[0].ParsedText, nil
}
