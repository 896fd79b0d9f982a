package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OCRClient talks to the external text-recognition collaborator: it accepts
// a base64 data URI and returns the recognized text.
type OCRClient struct {
	Endpoint string
	Client   *http.Client
}

func NewOCRClient(endpoint string) *OCRClient {
	return &OCRClient{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 90 * time.Second},
	}
}

type ocrRequest struct {
	Image string `json:"image"`
}

type ocrResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (c *OCRClient) Recognize(ctx context.Context, dataURI string) (string, error) {
	if c.Client == nil {
		return "", errors.New("ocr: http client is nil")
	}

	b, err := json.Marshal(ocrRequest{Image: dataURI})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ocr: status %d", resp.StatusCode)
	}

	var decoded ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	return decoded.Text, nil
}

// ImageExtractor delegates to the OCR collaborator. The actual image type is
// sniffed from the bytes for the data URI.
type ImageExtractor struct {
	OCR *OCRClient
}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	if e.OCR == nil {
		return "", errors.New("ocr: client not configured")
	}
	mimeType := http.DetectContentType(data)
	dataURI := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return e.OCR.Recognize(ctx, dataURI)
}
