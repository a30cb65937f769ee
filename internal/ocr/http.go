package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scrollback/internal/language"
	"scrollback/internal/services"
)

const (
	defaultEndpoint       = "/api/ocr"
	defaultHealthEndpoint = "/health"
	defaultTimeout        = 30 * time.Second

	codeSuccess = 100
	codeNoText  = 101
)

// HTTPConfig describes one detection service instance.
type HTTPConfig struct {
	BaseURL        string
	Endpoint       string
	HealthEndpoint string
	// Language is an ISO 639-1 code sent as the matching ocr.language model;
	// empty leaves the service default in place.
	Language       string
	TimeoutSeconds int
}

// HTTPDetector calls a detection service over HTTP.
type HTTPDetector struct {
	cfg    HTTPConfig
	client *http.Client
}

// HTTPOption customises an HTTPDetector.
type HTTPOption func(*HTTPDetector)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(d *HTTPDetector) {
		if client != nil {
			d.client = client
		}
	}
}

// NewHTTPDetector builds a detector for cfg.
func NewHTTPDetector(cfg HTTPConfig, opts ...HTTPOption) *HTTPDetector {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.HealthEndpoint == "" {
		cfg.HealthEndpoint = defaultHealthEndpoint
	}
	d := &HTTPDetector{cfg: cfg, client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Language returns the configured recognition language.
func (d *HTTPDetector) Language() string {
	return d.cfg.Language
}

type detectRequest struct {
	Base64  string            `json:"base64"`
	Options map[string]string `json:"options,omitempty"`
}

type detectResponse struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

type detectSpan struct {
	Text  string       `json:"text"`
	Box   [][2]float64 `json:"box"`
	Score float64      `json:"score"`
}

// Detect posts img and returns the recognised spans in service order. A "no
// text" response yields an empty slice and no error.
func (d *HTTPDetector) Detect(ctx context.Context, img *Image) ([]TextBlock, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ocr", "detect", "empty image", nil)
	}
	payload := detectRequest{
		Base64:  base64.StdEncoding.EncodeToString(img.Data),
		Options: map[string]string{"data.format": "dict"},
	}
	if model := language.OCRModel(d.cfg.Language); model != "" {
		payload.Options["ocr.language"] = model
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.BaseURL+d.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "detect", img.Name, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "read response", img.Name, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "detect",
			fmt.Sprintf("%s: http %d: %s", img.Name, resp.StatusCode, snippet(body)), nil)
	}
	return parseResponse(body, d.cfg.Language)
}

func parseResponse(body []byte, pass string) ([]TextBlock, error) {
	var decoded detectResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrDecode, "ocr", "decode response", snippet(body), err)
	}
	switch decoded.Code {
	case codeNoText:
		return nil, nil
	case codeSuccess:
	default:
		var message string
		_ = json.Unmarshal(decoded.Data, &message)
		return nil, services.Wrap(services.ErrExternalTool, "ocr", "detect",
			fmt.Sprintf("service code %d: %s", decoded.Code, message), nil)
	}

	var spans []detectSpan
	if err := json.Unmarshal(decoded.Data, &spans); err != nil {
		return nil, services.Wrap(services.ErrDecode, "ocr", "decode spans", snippet(body), err)
	}
	blocks := make([]TextBlock, 0, len(spans))
	for _, span := range spans {
		if len(span.Box) != 4 {
			continue
		}
		var box [4]Point
		for i, p := range span.Box {
			box[i] = Point{X: p[0], Y: p[1]}
		}
		blocks = append(blocks, TextBlock{
			Box:        box,
			Text:       span.Text,
			Confidence: span.Score,
			Pass:       pass,
		})
	}
	return blocks, nil
}

// Health checks that the service answers on its health endpoint.
func (d *HTTPDetector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.BaseURL+d.cfg.HealthEndpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "ocr", "health", d.cfg.BaseURL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrExternalTool, "ocr", "health",
			fmt.Sprintf("%s: http %d", d.cfg.BaseURL, resp.StatusCode), nil)
	}
	return nil
}

func snippet(body []byte) string {
	clean := strings.Join(strings.Fields(string(body)), " ")
	if clean == "" {
		return "<empty>"
	}
	if runes := []rune(clean); len(runes) > 160 {
		clean = string(runes[:160]) + "..."
	}
	return clean
}
