package identify

import (
	"strings"
	"testing"
)

func TestParseResponse(t *testing.T) {
	body := `{"results":[
		{"score":0.6,"species":{"scientificNameWithoutAuthor":"Acer campestre","genus":{"scientificNameWithoutAuthor":"Acer"}}},
		{"score":0.2,"species":{"scientificNameWithoutAuthor":"Acer platanoides","genus":{"scientificNameWithoutAuthor":"Acer"}}}
	]}`

	result, err := ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse failed: %v", err)
	}
	if len(result.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result.Candidates))
	}
	if result.Candidates[1].ScientificName != "Acer platanoides" {
		t.Errorf("Expected order to be preserved, got %s", result.Candidates[1].ScientificName)
	}
}

func TestParseResponseInvalid(t *testing.T) {
	if _, err := ParseResponse([]byte("not json")); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestTopEmpty(t *testing.T) {
	var result *Result
	if _, ok := result.Top(); ok {
		t.Error("Expected no top candidate for nil result")
	}
	if _, ok := (&Result{}).Top(); ok {
		t.Error("Expected no top candidate for empty result")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: "API key"},
		{name: "zero results", mutate: func(c *Config) { c.NbResults = 0 }, wantErr: "nb-results"},
		{name: "no organs", mutate: func(c *Config) { c.Organs = nil }, wantErr: "organ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			config.APIKey = "key"
			tt.mutate(&config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestServiceErrorMessage(t *testing.T) {
	err := &ServiceError{StatusCode: 429, Body: "Too many requests"}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "Too many requests") {
		t.Errorf("Unexpected error message: %s", err.Error())
	}
}

func TestVisionPromptMentionsResultCount(t *testing.T) {
	prompt := VisionPrompt(3, "fr")
	if !strings.Contains(prompt, "Return the 3 most likely species") {
		t.Errorf("Prompt does not request 3 results: %s", prompt)
	}
	if !strings.Contains(prompt, "scientificNameWithoutAuthor") {
		t.Errorf("Prompt does not describe the response shape: %s", prompt)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: `{"results":[]}`, expected: `{"results":[]}`},
		{input: "```json\n{\"results\":[]}\n```", expected: `{"results":[]}`},
		{input: "```\n{\"results\":[]}\n```", expected: `{"results":[]}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.input); got != tt.expected {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
