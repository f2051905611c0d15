package scanning

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mistral implements the Scanner interface using the Mistral OCR API
type Mistral struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewMistral creates a new Mistral Scanner instance
func NewMistral(baseURL, apiKey, modelName string) (*Mistral, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("mistral api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.mistral.ai"
	}
	if modelName == "" {
		modelName = "mistral-ocr-latest"
	}

	return &Mistral{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   modelName,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type mistralDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

// mistralOCRRequest represents the request body for Mistral's OCR API
type mistralOCRRequest struct {
	Model    string          `json:"model"`
	Document mistralDocument `json:"document"`
}

// mistralOCRResponse represents the response from Mistral's OCR API
type mistralOCRResponse struct {
	Model string `json:"model"`
	Pages []Page `json:"pages"`
}

// mistralError is the error body returned on non-2xx responses
type mistralError struct {
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

// ScanDocument sends the image to the OCR endpoint as a base64 data URL
func (m *Mistral) ScanDocument(ctx context.Context, imageData []byte, contentType string) (*Document, error) {
	if contentType == "" {
		contentType = MimeJPEG
	}

	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralDocument{
			Type:     "image_url",
			ImageURL: fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData)),
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/ocr", m.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling mistral API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr mistralError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("mistral API error (status %d): %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("mistral API error (status %d): %s", resp.StatusCode, string(body))
	}

	var ocrResp mistralOCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(ocrResp.Pages) == 0 {
		return nil, ErrNoPages
	}

	model := ocrResp.Model
	if model == "" {
		model = m.model
	}
	return &Document{Model: model, Pages: ocrResp.Pages}, nil
}

// Close closes the Mistral client (no-op for HTTP client)
func (m *Mistral) Close() error {
	return nil
}
