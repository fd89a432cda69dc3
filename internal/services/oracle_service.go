package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/metrics"
)

// Published feed identifiers for the pairs the demo trades. Unknown pairs
// fall back immediately without a fetch.
var defaultFeedIDs = map[string]string{
	"USD/JPY": "ef2c98c804ba503c6a707e38be4dfbb16683775f195b091252bf24693042fd52",
	"USD/EUR": "a995d00bb36a63cef7fd2c287dc105fc8f3d93779f062f09551b0af3e81ec30b",
	"USD/MXN": "e13b1c1ffb32f34e1be9545583f01ef385fde7f42ee66049d30570dc866b77ca",
}

var defaultFallbackRates = map[string]string{
	"USD/JPY": "150.00",
	"USD/EUR": "0.92",
	"USD/MXN": "17.50",
}

// OracleService fetches the current exchange rate for a currency pair from a
// hosted price feed. Every call is a fresh fetch with a short timeout; on any
// failure the per-pair fallback constant is returned and a warning logged.
// Callers never see an error.
type OracleService struct {
	client    *http.Client
	baseURL   string
	feedIDs   map[string]string
	fallbacks map[string]decimal.Decimal
}

func NewOracleService() *OracleService {
	timeout := time.Duration(viper.GetInt("oracle.timeout_seconds")) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	fallbacks := make(map[string]decimal.Decimal, len(defaultFallbackRates))
	for pair, rate := range defaultFallbackRates {
		fallbacks[pair], _ = decimal.NewFromString(rate)
	}

	return &OracleService{
		client:    &http.Client{Timeout: timeout},
		baseURL:   viper.GetString("oracle.base_url"),
		feedIDs:   defaultFeedIDs,
		fallbacks: fallbacks,
	}
}

// NewOracleServiceWithClient is used by tests to point the oracle at a stub
// feed.
func NewOracleServiceWithClient(baseURL string, client *http.Client) *OracleService {
	o := NewOracleService()
	o.baseURL = baseURL
	if client != nil {
		o.client = client
	}
	return o
}

type priceFeedResponse struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price       string `json:"price"`
			Conf        string `json:"conf"`
			Expo        int32  `json:"expo"`
			PublishTime int64  `json:"publish_time"`
		} `json:"price"`
	} `json:"parsed"`
}

// GetRate returns the latest published rate for the pair rounded to two
// decimal places, or the pair's fallback constant on any failure.
func (o *OracleService) GetRate(ctx context.Context, pair string) decimal.Decimal {
	feedID, ok := o.feedIDs[pair]
	if !ok {
		log.Printf("[ORACLE] No feed configured for pair %s, using fallback rate", pair)
		return o.fallback(pair)
	}

	url := fmt.Sprintf("%s/v2/updates/price/latest?ids[]=%s", o.baseURL, feedID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("[ORACLE] Failed to build feed request for %s: %v", pair, err)
		return o.fallback(pair)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		log.Printf("[ORACLE] Feed fetch failed for %s: %v", pair, err)
		return o.fallback(pair)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[ORACLE] Feed returned status %d for %s", resp.StatusCode, pair)
		return o.fallback(pair)
	}

	var feed priceFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		log.Printf("[ORACLE] Failed to decode feed response for %s: %v", pair, err)
		return o.fallback(pair)
	}

	if len(feed.Parsed) == 0 {
		log.Printf("[ORACLE] Feed returned no data for %s", pair)
		return o.fallback(pair)
	}

	raw, err := decimal.NewFromString(feed.Parsed[0].Price.Price)
	if err != nil {
		log.Printf("[ORACLE] Feed returned malformed price for %s: %v", pair, err)
		return o.fallback(pair)
	}

	rate := raw.Shift(feed.Parsed[0].Price.Expo).Round(2)
	if !rate.IsPositive() {
		log.Printf("[ORACLE] Feed returned non-positive rate %s for %s", rate, pair)
		return o.fallback(pair)
	}

	return rate
}

func (o *OracleService) fallback(pair string) decimal.Decimal {
	metrics.OracleFallbacks.Inc()
	if rate, ok := o.fallbacks[pair]; ok {
		return rate
	}
	log.Printf("[ORACLE] No fallback configured for pair %s, defaulting to 1.00", pair)
	return decimal.NewFromInt(1)
}
