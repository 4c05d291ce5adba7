// Package formrecognizer talks to the Azure Form Recognizer (Document
// Intelligence) REST API.
package formrecognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

const (
	BackendName = "formrecognizer"

	keyHeader = "Ocp-Apim-Subscription-Key"
)

// ErrAnalysisFailed is returned when the service reports a failed operation.
var ErrAnalysisFailed = errors.New("document analysis failed")

type Config struct {
	Endpoint     string
	APIKey       string
	ModelID      string
	APIVersion   string
	PollInterval time.Duration
	// HTTPClient is optional; the default has no timeout so a long analysis
	// is bounded only by the caller's context.
	HTTPClient *http.Client
}

type Client struct {
	endpoint     string
	apiKey       string
	modelID      string
	apiVersion   string
	pollInterval time.Duration
	httpClient   *http.Client
	logger       logger.Logger
}

// operationResponse is the body of the Operation-Location resource.
type operationResponse struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
	Error         *serviceError  `json:"error,omitempty"`
}

type analyzeResult struct {
	APIVersion string  `json:"apiVersion"`
	ModelID    string  `json:"modelId"`
	Content    *string `json:"content"`
	Pages      []struct {
		PageNumber int `json:"pageNumber"`
	} `json:"pages"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *serviceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewClient(cfg *Config, log logger.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, errors.New("form recognizer endpoint and key are required")
	}

	c := &Client{
		endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		modelID:      cfg.ModelID,
		apiVersion:   cfg.APIVersion,
		pollInterval: cfg.PollInterval,
		httpClient:   cfg.HTTPClient,
		logger:       log.Named(BackendName),
	}
	if c.modelID == "" {
		c.modelID = "prebuilt-document"
	}
	if c.apiVersion == "" {
		c.apiVersion = "2023-07-31"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = time.Second
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c, nil
}

func (c *Client) Name() string { return BackendName }

func (c *Client) Close() error { return nil }

// Analyze submits the document and blocks until the operation completes.
func (c *Client) Analyze(ctx context.Context, reader io.Reader) (*models.AnalysisResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	operationURL, err := c.begin(ctx, data)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Analysis started", logger.String("operation", operationURL))

	op, err := c.pollUntilDone(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		ModelID: c.modelID,
		Backend: BackendName,
	}
	if op.AnalyzeResult != nil {
		result.Content = op.AnalyzeResult.Content
		result.Pages = len(op.AnalyzeResult.Pages)
		if op.AnalyzeResult.ModelID != "" {
			result.ModelID = op.AnalyzeResult.ModelID
		}
	}
	return result, nil
}

func (c *Client) begin(ctx context.Context, data []byte) (string, error) {
	url := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s", c.endpoint, c.modelID, c.apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(keyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to submit document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", c.statusError(resp)
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", errors.New("analyze response is missing Operation-Location")
	}
	return operationURL, nil
}

func (c *Client) pollUntilDone(ctx context.Context, operationURL string) (*operationResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		op, err := c.getOperation(ctx, operationURL)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(op.Status) {
		case "succeeded":
			return op, nil
		case "failed", "canceled":
			if op.Error != nil {
				return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, op.Error)
			}
			return nil, fmt.Errorf("%w: status %s", ErrAnalysisFailed, op.Status)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getOperation(ctx context.Context, operationURL string) (*operationResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create poll request: %w", err)
	}
	req.Header.Set(keyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to poll analysis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var op operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	return &op, nil
}

func (c *Client) statusError(resp *http.Response) error {
	var body struct {
		Error *serviceError `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		return fmt.Errorf("unexpected status %d: %w", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}
