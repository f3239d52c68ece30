// Package nutritionapi implements the best-effort external nutrition lookup
// port against a food-database HTTP API. Lookups that fail or find nothing
// report not_found; the resolution pipeline treats both as a soft miss.
package nutritionapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mealmind/v1/internal/domain/nutrition"
	"github.com/mealmind/v1/internal/ports/outbound"
)

// Config selects the endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements outbound.NutritionAPI.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a nutrition lookup client. With no base URL configured
// every lookup reports not_found, which keeps the pipeline functional on the
// remaining stages.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("nutrition-api"),
	}
}

// foodResponse is the wire shape of a lookup hit.
type foodResponse struct {
	Foods []struct {
		Name        string             `json:"name"`
		ServingSize string             `json:"serving_size"`
		Nutrients   map[string]float64 `json:"nutrients"`
	} `json:"foods"`
}

// Lookup queries the external database for one food name.
func (c *Client) Lookup(ctx context.Context, foodName string) (*outbound.NutritionLookupResult, error) {
	if c.cfg.BaseURL == "" {
		return &outbound.NutritionLookupResult{Status: "not_found"}, nil
	}

	endpoint := fmt.Sprintf("%s/v1/foods/search?query=%s", c.cfg.BaseURL, url.QueryEscape(foodName))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return &outbound.NutritionLookupResult{Status: "not_found"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup error %d: %s", resp.StatusCode, string(body))
	}

	var parsed foodResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Foods) == 0 {
		return &outbound.NutritionLookupResult{Status: "not_found"}, nil
	}

	hit := parsed.Foods[0]
	vec := nutrition.NewVector(nutrition.ConfidenceHigh)
	for rawKey, value := range hit.Nutrients {
		if key, ok := nutrition.ResolveAlias(rawKey); ok {
			vec.Set(key, value)
		}
	}
	if len(vec.Values) == 0 {
		c.logger.Warn("lookup hit carried no recognizable nutrients", zap.String("food", foodName))
		return &outbound.NutritionLookupResult{Status: "not_found"}, nil
	}
	vec.ReconcileCalories()

	serving := hit.ServingSize
	if serving == "" {
		serving = "1 serving"
	}
	return &outbound.NutritionLookupResult{
		Status:      "found",
		Nutrients:   vec,
		ServingSize: serving,
	}, nil
}
