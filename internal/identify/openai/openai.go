package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
)

const (
	defaultURL   = "https://api.openai.com"
	defaultModel = "gpt-4o-mini"
)

// OpenAI identifies plants with an OpenAI-compatible chat completions
// vision model.
type OpenAI struct {
	apiKey     string
	baseURL    string
	model      string
	nbResults  int
	lang       string
	httpClient *http.Client
}

// New returns an OpenAI identifier. It needs OPENAI_API_KEY; OPENAI_URL
// selects another compatible server and OPENAI_MODEL the default model.
func New(config identify.Config, model string) (*OpenAI, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	baseURL := os.Getenv("OPENAI_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	if model == "" {
		model = os.Getenv("OPENAI_MODEL")
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAI{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		model:     model,
		nbResults: config.NbResults,
		lang:      config.Lang,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Identify sends the image as a data URL and parses the ranked candidates.
func (o *OpenAI) Identify(ctx context.Context, imagePath string) (*identify.Result, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	requestBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": identify.VisionPrompt(o.nbResults, o.lang),
					},
					{
						"type": "image_url",
						"image_url": map[string]string{
							"url": dataURL(imagePath, imageData),
						},
					},
				},
			},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.1,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

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
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return identify.ParseResponse([]byte(identify.StripCodeFence(response.Choices[0].Message.Content)))
}

func dataURL(path string, data []byte) string {
	mediaType := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mediaType = "image/png"
	case ".webp":
		mediaType = "image/webp"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
