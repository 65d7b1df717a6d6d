package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"AgriGenie/internal/model"
)

// MandiFetcher implements Fetcher against the data.gov.in daily mandi price
// resource (Agmarknet). Records come back with snake_case string fields.
type MandiFetcher struct {
	ResourceURL string
	APIKey      string
	Client      *http.Client
}

// NewMandiFetcher creates a new fetcher with optional proxy support.
func NewMandiFetcher(resourceURL, apiKey, proxyURL string) *MandiFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &MandiFetcher{
		ResourceURL: resourceURL,
		APIKey:      apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *MandiFetcher) Name() string { return "data.gov.in" }

// mandiResponse is the expected JSON envelope from the resource API.
type mandiResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Total   int               `json:"total"`
	Records []model.RawRecord `json:"records"`
}

func (f *MandiFetcher) FetchRecords(ctx context.Context, q model.MarketQuery) ([]model.RawRecord, error) {
	endpoint, err := f.endpoint(q)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch records: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result mandiResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	if result.Status == "error" {
		return nil, fmt.Errorf("mandi api error: %s", result.Message)
	}
	return result.Records, nil
}

func (f *MandiFetcher) endpoint(q model.MarketQuery) (string, error) {
	u, err := url.Parse(f.ResourceURL)
	if err != nil {
		return "", fmt.Errorf("parse resource url: %w", err)
	}
	params := u.Query()
	params.Set("format", "json")
	if f.APIKey != "" {
		params.Set("api-key", f.APIKey)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	params.Set("filters[state]", q.State)
	params.Set("filters[commodity]", q.Commodity)
	if q.Market != "" {
		params.Set("filters[market]", q.Market)
	}
	if q.District != "" {
		params.Set("filters[district]", q.District)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}
