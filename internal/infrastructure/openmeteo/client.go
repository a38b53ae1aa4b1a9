package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/site-assessment/internal/config"
	"go.uber.org/zap"
)

// Client - клиент Open-Meteo Air Quality API.
// Реализует repository.AirQualityRepository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient создает новый клиент Open-Meteo
func NewClient(cfg *config.AirQualityConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: cfg.BaseURL,
		logger:  logger,
	}
}

type airQualityResponse struct {
	Hourly struct {
		Time  []string   `json:"time"`
		USAQI []*float64 `json:"us_aqi"`
	} `json:"hourly"`
}

// LatestUSAQI возвращает последнее значение почасового ряда us_aqi.
// nil, если ряд пуст или последнее значение равно null.
func (c *Client) LatestUSAQI(ctx context.Context, lat, lon float64) (*float64, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("hourly", "us_aqi")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("air quality API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var aq airQualityResponse
	if err := json.NewDecoder(resp.Body).Decode(&aq); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	series := aq.Hourly.USAQI
	if len(series) == 0 {
		c.logger.Debug("Air quality series is empty",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon))
		return nil, nil
	}

	return series[len(series)-1], nil
}
