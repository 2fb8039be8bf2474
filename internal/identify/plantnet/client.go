package plantnet

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/floraeval/internal/identify"
)

// Client calls the Pl@ntNet identification API.
type Client struct {
	config     identify.Config
	httpClient *http.Client
}

// NewClient creates a client for the given run configuration.
func NewClient(config identify.Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Identify uploads one image and returns the ranked candidates.
func (c *Client) Identify(ctx context.Context, imagePath string) (*identify.Result, error) {
	body, contentType, err := c.buildForm(imagePath)
	if err != nil {
		return nil, err
	}

	endpoint := c.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create identify request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	slog.Debug("Calling identification service", "image", filepath.Base(imagePath), "project", c.config.Project)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call identification service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read identification response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &identify.ServiceError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	respType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(respType); err != nil || mediaType != "application/json" {
		return nil, &identify.ServiceError{StatusCode: resp.StatusCode, ContentType: respType, Body: string(data)}
	}

	return identify.ParseResponse(data)
}

func (c *Client) endpoint() string {
	params := url.Values{}
	params.Set("include-related-images", strconv.FormatBool(c.config.IncludeRelatedImages))
	params.Set("no-reject", strconv.FormatBool(c.config.NoReject))
	params.Set("nb-results", strconv.Itoa(c.config.NbResults))
	params.Set("lang", c.config.Lang)
	params.Set("type", c.config.ModelType)
	params.Set("api-key", c.config.APIKey)

	base := strings.TrimRight(c.config.BaseURL, "/")
	return fmt.Sprintf("%s/v2/identify/%s?%s", base, url.PathEscape(c.config.Project), params.Encode())
}

func (c *Client) buildForm(imagePath string) (io.Reader, string, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, organ := range c.config.Organs {
		if err := writer.WriteField("organs", organ); err != nil {
			return nil, "", fmt.Errorf("failed to write organs field: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, filepath.Base(imagePath)))
	header.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
