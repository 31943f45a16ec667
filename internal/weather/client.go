// Package weather is a thin passthrough client for a current-conditions API,
// reduced to the fields the menu actually uses.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Conditions is the simplified current-conditions object returned to clients
// and embedded into chat prompts.
type Conditions struct {
	TempC       float64 `json:"temp_c"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
}

// Client calls an OpenWeatherMap-compatible current-weather endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	city       string
	httpClient *http.Client
}

// NewClient creates a weather client. baseURL should point at the API root,
// e.g. "https://api.openweathermap.org/data/2.5".
func NewClient(baseURL, apiKey, city string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		city:       city,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Current fetches and simplifies the current conditions.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	endpoint := fmt.Sprintf("%s/weather?q=%s&appid=%s&units=metric",
		c.baseURL, url.QueryEscape(c.city), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather: upstream returned %d", resp.StatusCode)
	}

	var payload struct {
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Conditions{}, fmt.Errorf("weather: decode response: %w", err)
	}

	conditions := Conditions{TempC: payload.Main.Temp}
	if len(payload.Weather) > 0 {
		conditions.Condition = payload.Weather[0].Main
		conditions.Description = payload.Weather[0].Description
	}
	return conditions, nil
}
