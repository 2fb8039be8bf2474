package plantnet

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
)

const sampleResponse = `{
  "results": [
    {"score": 0.81, "species": {"scientificNameWithoutAuthor": "Quercus robur", "genus": {"scientificNameWithoutAuthor": "Quercus"}}},
    {"score": 0.07, "species": {"scientificNameWithoutAuthor": "Quercus petraea", "genus": {"scientificNameWithoutAuthor": "Quercus"}}}
  ]
}`

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leaf_01.jpg")
	if err := os.WriteFile(path, []byte("\xff\xd8\xff\xe0fake-jpeg"), 0644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return path
}

func testConfig(baseURL string) identify.Config {
	config := identify.DefaultConfig()
	config.APIKey = "test-key"
	config.BaseURL = baseURL
	config.Timeout = 5 * time.Second
	return config
}

func TestIdentifySendsExpectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v2/identify/all" {
			t.Errorf("Expected path /v2/identify/all, got %s", r.URL.Path)
		}

		query := r.URL.Query()
		expected := map[string]string{
			"include-related-images": "false",
			"no-reject":              "false",
			"nb-results":             "5",
			"lang":                   "en",
			"type":                   "kt",
			"api-key":                "test-key",
		}
		for key, value := range expected {
			if query.Get(key) != value {
				t.Errorf("Expected query %s=%s, got %s", key, value, query.Get(key))
			}
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Failed to parse multipart form: %v", err)
		}
		if organs := r.MultipartForm.Value["organs"]; len(organs) != 1 || organs[0] != "auto" {
			t.Errorf("Expected organs [auto], got %v", organs)
		}

		file, header, err := r.FormFile("images")
		if err != nil {
			t.Fatalf("Expected images file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "leaf_01.jpg" {
			t.Errorf("Expected filename leaf_01.jpg, got %s", header.Filename)
		}
		if header.Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("Expected image/jpeg part, got %s", header.Header.Get("Content-Type"))
		}
		data, _ := io.ReadAll(file)
		if len(data) == 0 {
			t.Error("Expected image bytes in upload")
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	result, err := client.Identify(context.Background(), writeImage(t))
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}

	if len(result.Candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result.Candidates))
	}
	top, ok := result.Top()
	if !ok {
		t.Fatal("Expected a top candidate")
	}
	if top.ScientificName != "Quercus robur" || top.Genus != "Quercus" || top.Score != 0.81 {
		t.Errorf("Unexpected top candidate: %+v", top)
	}
}

func TestIdentifyNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Species not found"}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Identify(context.Background(), writeImage(t))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var serviceErr *identify.ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Expected *identify.ServiceError, got %T", err)
	}
	if serviceErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", serviceErr.StatusCode)
	}
	if serviceErr.Body != `{"message":"Species not found"}` {
		t.Errorf("Expected raw body to be kept, got %s", serviceErr.Body)
	}
}

func TestIdentifyNonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.Identify(context.Background(), writeImage(t))

	var serviceErr *identify.ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("Expected *identify.ServiceError, got %v", err)
	}
	if serviceErr.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", serviceErr.StatusCode)
	}
	if serviceErr.ContentType != "text/html" {
		t.Errorf("Expected content type text/html, got %s", serviceErr.ContentType)
	}
}

func TestIdentifyMissingImage(t *testing.T) {
	client := NewClient(testConfig("http://127.0.0.1:1"))
	if _, err := client.Identify(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("Expected error for missing image, got nil")
	}
}

func TestEndpointEscapesProject(t *testing.T) {
	config := testConfig("https://example.org/")
	config.Project = "weurope"
	config.NbResults = 10

	client := NewClient(config)
	endpoint := client.endpoint()

	expectedPrefix := "https://example.org/v2/identify/weurope?"
	if len(endpoint) < len(expectedPrefix) || endpoint[:len(expectedPrefix)] != expectedPrefix {
		t.Errorf("Expected endpoint to start with %s, got %s", expectedPrefix, endpoint)
	}
}
