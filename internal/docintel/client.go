package docintel

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docufield/receipt-lens/internal/common"
)

const apiVersion = "2024-11-30"

// Config for the document-intelligence client.
type Config struct {
	Endpoint     string        // base URL of the analysis service, required
	APIKey       string        // required
	Timeout      time.Duration // per-request http timeout
	PollInterval time.Duration // delay between operation status checks
}

// Client submits analyze operations and waits for them to settle. It does
// not retry; backoff policy belongs to the service side.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates the endpoint and key eagerly; a blank value is a
// construction error, not a deferred analyze failure.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "analysis endpoint is required", common.ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "analysis api key is required", common.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Analyze submits imageBytes to the given model and blocks until the remote
// operation settles or ctx is done. Cancellation aborts the wait; the remote
// job is simply abandoned.
func (c *Client) Analyze(ctx context.Context, modelID string, imageBytes []byte) (*AnalyzeResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("docintel.analyze.start",
		"req_id", rid,
		"model_id", modelID,
		"image_bytes", len(imageBytes),
	)

	opURL, err := c.submit(ctx, modelID, imageBytes)
	if err != nil {
		c.logger.Error("docintel.analyze.submit_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	raw, err := c.waitForResult(ctx, opURL)
	if err != nil {
		c.logger.Error("docintel.analyze.wait_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	if err := ValidateJSONAgainstSchema(BuildAnalyzeResultJSONSchema(), raw); err != nil {
		c.logger.Error("docintel.analyze.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAnalysisError(common.AnalysisUnknown, err)
	}

	result, err := DecodeAnalyzeResult(raw)
	if err != nil {
		c.logger.Error("docintel.analyze.decode_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAnalysisError(common.AnalysisUnknown, err)
	}

	c.logger.Info("docintel.analyze.ok",
		"req_id", rid,
		"model_id", result.ModelID,
		"documents", len(result.Documents),
		"content_len", len(result.Content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// submit starts the analyze operation and returns its status URL.
func (c *Client) submit(ctx context.Context, modelID string, imageBytes []byte) (string, error) {
	body := map[string]any{
		"base64Source": base64.StdEncoding.EncodeToString(imageBytes),
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", common.NewAnalysisError(common.AnalysisUnknown, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/documentModels/%s:analyze?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), modelID, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", common.NewAnalysisError(common.AnalysisUnknown, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", common.NewAnalysisError(common.AnalysisTransport, err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return "", c.statusError(resp)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", common.NewAnalysisError(common.AnalysisUnknown, fmt.Errorf("missing Operation-Location header"))
	}
	return opURL, nil
}

// waitForResult polls the operation URL until it settles, honoring ctx.
func (c *Client) waitForResult(ctx context.Context, opURL string) ([]byte, error) {
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		raw, done, err := c.checkOperation(ctx, opURL)
		if err != nil {
			return nil, err
		}
		if done {
			return raw, nil
		}

		select {
		case <-ctx.Done():
			return nil, common.NewAnalysisError(common.AnalysisTransport, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *Client) checkOperation(ctx context.Context, opURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, false, common.NewAnalysisError(common.AnalysisUnknown, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, common.NewAnalysisError(common.AnalysisTransport, err)
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, c.statusError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, common.NewAnalysisError(common.AnalysisTransport, err)
	}

	var op wireOperation
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, false, common.NewAnalysisError(common.AnalysisUnknown, fmt.Errorf("decode operation: %w", err))
	}

	switch op.Status {
	case "succeeded":
		if op.AnalyzeResult == nil {
			return nil, false, common.NewAnalysisError(common.AnalysisUnknown, fmt.Errorf("operation succeeded without analyzeResult"))
		}
		inner, err := json.Marshal(op.AnalyzeResult)
		if err != nil {
			return nil, false, common.NewAnalysisError(common.AnalysisUnknown, err)
		}
		return inner, true, nil
	case "failed":
		msg := "operation failed"
		if op.Error != nil {
			msg = fmt.Sprintf("operation failed: %s: %s", op.Error.Code, op.Error.Message)
		}
		return nil, false, common.NewAnalysisError(common.AnalysisUnknown, fmt.Errorf("%s", msg))
	default:
		// notStarted / running
		return nil, false, nil
	}
}

// statusError maps an HTTP status to the tagged analysis error kinds so
// callers can tell a rejected key from a malformed request.
func (c *Client) statusError(resp *http.Response) error {
	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	cause := fmt.Errorf("analysis service status %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return common.NewAnalysisError(common.AnalysisAuthentication, cause)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return common.NewAnalysisError(common.AnalysisInvalidRequest, cause)
	default:
		return common.NewAnalysisError(common.AnalysisUnknown, cause)
	}
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Warn("docintel.response_body_close_error", "error", err)
	}
}
