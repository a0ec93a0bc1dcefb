package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classsync_extractions_total",
	Help: "Timetable extraction calls, by outcome.",
}, []string{"outcome"})

// Client calls the AI vision service that turns a timetable screenshot into
// class records. The service is an opaque collaborator: its output is
// returned as untyped JSON and must go through schedule.Validate before use.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set the client returns a canned timetable
// instead of calling out, for local development without credentials.
func New(baseURL, apiKey string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 60 * time.Second, // vision extraction is slow
		},
	}
}

// Extract sends a base64-encoded image and returns the raw class records.
func (c *Client) Extract(ctx context.Context, imageB64, mimeType string) ([]any, error) {
	if c.Skip {
		return mockClasses(), nil
	}
	if imageB64 == "" {
		return nil, fmt.Errorf("image data required")
	}

	body, _ := json.Marshal(map[string]string{
		"image":     imageB64,
		"mime_type": mimeType,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("extraction service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		extractionsTotal.WithLabelValues("error").Inc()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extraction service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Classes []any `json:"classes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		extractionsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Classes) == 0 {
		extractionsTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("no classes found in image")
	}
	extractionsTotal.WithLabelValues("ok").Inc()
	return out.Classes, nil
}

// Health checks if the extraction service is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("extraction service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("extraction service unhealthy: %s", resp.Status)
	}
	return nil
}

func mockClasses() []any {
	return []any{
		map[string]any{
			"day":         "Monday",
			"start_time":  "9:00AM",
			"end_time":    "9:50AM",
			"course_code": "CS F213",
			"course_name": "Object Oriented Programming",
			"class_type":  "Lecture",
			"location":    "Room 101",
			"instructor":  "Staff",
		},
		map[string]any{
			"day":         "Wednesday",
			"start_time":  "14:00",
			"end_time":    "15:50",
			"course_code": "CS F213",
			"course_name": "Object Oriented Programming",
			"class_type":  "Lab",
			"location":    "Lab 6",
			"instructor":  "Staff",
		},
	}
}
