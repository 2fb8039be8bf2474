package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
)

const (
	defaultURL   = "http://localhost:11434"
	defaultModel = "llava"
)

// Ollama identifies plants with a local vision model served by Ollama.
type Ollama struct {
	baseURL    string
	model      string
	nbResults  int
	lang       string
	httpClient *http.Client
}

// New returns an Ollama identifier. The server defaults to OLLAMA_URL and
// the model to OLLAMA_MODEL when model is empty.
func New(config identify.Config, model string) *Ollama {
	baseURL := os.Getenv("OLLAMA_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}
	if model == "" {
		model = defaultModel
	}
	return &Ollama{
		baseURL:   baseURL,
		model:     model,
		nbResults: config.NbResults,
		lang:      config.Lang,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Identify sends the image to /api/generate and parses the ranked
// candidates from the model's JSON answer.
func (o *Ollama) Identify(ctx context.Context, imagePath string) (*identify.Result, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": identify.VisionPrompt(o.nbResults, o.lang),
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
		"format": "json",
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &identify.ServiceError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return identify.ParseResponse([]byte(identify.StripCodeFence(response.Response)))
}
