package gemini

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/floraeval/internal/identify"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

// Gemini identifies plants with a Gemini vision model, asking it to answer
// in the same JSON shape as the Pl@ntNet API.
type Gemini struct {
	apiKey    string
	model     string
	nbResults int
	lang      string
}

// New returns a Gemini identifier. An empty model falls back to
// GEMINI_MODEL, then to the default model.
func New(config identify.Config, model string) (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if model == "" {
		model = os.Getenv("GEMINI_MODEL")
	}
	if model == "" {
		model = defaultModel
	}
	return &Gemini{
		apiKey:    apiKey,
		model:     model,
		nbResults: config.NbResults,
		lang:      config.Lang,
	}, nil
}

// Identify sends the image to Gemini and parses the ranked candidates.
func (g *Gemini) Identify(ctx context.Context, imagePath string) (*identify.Result, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(imagePath), imageData),
		genai.Text(identify.VisionPrompt(g.nbResults, g.lang)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	return parseResponse(resp)
}

// parseResponse reads the ranked candidates from the first text part of the
// first Gemini candidate.
func parseResponse(resp *genai.GenerateContentResponse) (*identify.Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	return identify.ParseResponse([]byte(identify.StripCodeFence(string(txt))))
}

func imageFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
