package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sjsage522/pricetracker/logger"

	"github.com/go-resty/resty/v2"
)

// renderRequest is the body sent to the rendering service
type renderRequest struct {
	URL     string `json:"url"`
	WaitFor string `json:"waitFor,omitempty"`
	Timeout int64  `json:"timeout"`
}

// renderEnvelope is the JSON shape some rendering services answer with
type renderEnvelope struct {
	Data    string `json:"data"`
	Content string `json:"content"`
}

// RenderFetcher fetches fully rendered pages through a headless browser
// service
type RenderFetcher struct {
	Addr    string
	WaitFor string
	Timeout time.Duration

	client *resty.Client
}

// NewRenderFetcher creates a fetcher posting to the rendering service at addr
func NewRenderFetcher(addr, waitFor string, timeout time.Duration) *RenderFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	// Page load timeout plus headroom for the service itself
	client.SetTimeout(timeout + 15*time.Second)
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "PriceTracker/1.0")

	return &RenderFetcher{
		Addr:    strings.TrimRight(addr, "/"),
		WaitFor: waitFor,
		Timeout: timeout,
		client:  client,
	}
}

// GetName returns the fetcher's name for logging
func (f *RenderFetcher) GetName() string {
	return "render"
}

// Fetch asks the rendering service for the page content of url
func (f *RenderFetcher) Fetch(ctx context.Context, url string) (io.Reader, error) {
	if f.Addr == "" {
		return nil, fmt.Errorf("render service address not configured")
	}

	log := logger.ForFetcher(f.GetName())
	log.Debug().Str("url", url).Str("wait_for", f.WaitFor).Msg("Requesting rendered page")

	resp, err := f.client.R().
		SetContext(ctx).
		SetBody(renderRequest{
			URL:     url,
			WaitFor: f.WaitFor,
			Timeout: f.Timeout.Milliseconds(),
		}).
		Post(f.Addr + "/content")
	if err != nil {
		return nil, fmt.Errorf("render request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("render service returned HTTP %d: %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}

	log.Debug().Int("size", len(resp.Body())).Msg("Rendered page received")
	return processRawResponse(resp.Body())
}

// processRawResponse accepts raw HTML or a JSON envelope carrying it
func processRawResponse(data []byte) (io.Reader, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty response")
	}

	if trimmed[0] == '{' {
		var envelope renderEnvelope
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("failed to parse render response: %w", err)
		}
		content := envelope.Data
		if content == "" {
			content = envelope.Content
		}
		if content == "" {
			return nil, fmt.Errorf("no content in render response")
		}
		trimmed = []byte(content)
	}

	lower := strings.ToLower(string(trimmed))
	if !strings.Contains(lower, "<html") && !strings.Contains(lower, "<!doctype") && !strings.Contains(lower, "<body") {
		preview := string(trimmed)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		logger.ForFetcher("render").Debug().Str("preview", preview).Msg("Response doesn't look like HTML")
		return nil, fmt.Errorf("response doesn't appear to be valid HTML")
	}

	return bytes.NewReader(trimmed), nil
}
