package orderids

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// Client calls the booking service's order-id endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *logger.Logger
}

func NewClient(baseURL string, log *logger.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Logger:  log,
	}
}

// Validate posts ids to /api/validate-order-ids.
func (c *Client) Validate(ctx context.Context, ids []string) (*models.ValidationResult, error) {
	body, err := json.Marshal(map[string][]string{"orderIds": ids})
	if err != nil {
		return nil, err
	}

	url := c.BaseURL + "/api/validate-order-ids"
	c.Logger.Debug("ORDERS", fmt.Sprintf("Validating %d order ids: %s", len(ids), url))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create validate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Logger.Error("ORDERS", fmt.Sprintf("Booking service error: %v", err))
		return nil, fmt.Errorf("booking service error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.Logger.Error("ORDERS", fmt.Sprintf("Failed to close validate response body: %v", err))
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error == "" {
			failure.Error = "Unknown error"
		}
		c.Logger.Error("ORDERS", fmt.Sprintf("Validate returned %d: %s", resp.StatusCode, failure.Error))
		return nil, fmt.Errorf("failed to validate order ids: %s (status %d)", failure.Error, resp.StatusCode)
	}

	var result models.ValidationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode validate response: %w", err)
	}
	return &result, nil
}
