// Package kcc loads historical Kisan Call Centre question/answer
// records, either from the data.gov.in open-data API or from a local
// JSON file. Loading is a one-shot batch at startup; there is no
// refresh mechanism beyond restarting with -refresh.
package kcc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kisaansetu/advisor/internal/core"
)

const (
	defaultBaseURL = "https://api.data.gov.in/resource/cef25fe2-9231-4128-8aec-2c948fedd43f"
	requestTimeout = 60 * time.Second
	DefaultLimit   = 1000
)

type apiRecord struct {
	QueryText string `json:"QueryText"`
	KccAns    string `json:"KccAns"`
}

type apiResponse struct {
	Records []apiRecord `json:"records"`
}

// Loader fetches KCC records from the data.gov.in resource API.
type Loader struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewLoader(apiKey string) *Loader {
	return &Loader{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

// NewLoaderWithURL is used by tests to point the loader at a stub server.
func NewLoaderWithURL(apiKey, baseURL string) *Loader {
	l := NewLoader(apiKey)
	l.baseURL = baseURL
	return l
}

// Fetch retrieves up to limit records in a single batch.
func (l *Loader) Fetch(ctx context.Context, limit int) ([]core.Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("api-key", l.apiKey)
	params.Set("format", "json")
	params.Set("limit", fmt.Sprintf("%d", limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build KCC request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KCC dataset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("KCC dataset request returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode KCC response: %w", err)
	}

	records := make([]core.Record, 0, len(payload.Records))
	for _, rec := range payload.Records {
		records = append(records, core.Record{
			QueryText:  rec.QueryText,
			AnswerText: rec.KccAns,
		})
	}
	return records, nil
}

// LoadFromFile reads records from a local JSON array of
// {QueryText, KccAns} objects, for offline runs.
func LoadFromFile(path string) ([]core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read KCC data file %s: %w", path, err)
	}

	var raw []apiRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse KCC data file %s: %w", path, err)
	}

	records := make([]core.Record, 0, len(raw))
	for _, rec := range raw {
		records = append(records, core.Record{
			QueryText:  rec.QueryText,
			AnswerText: rec.KccAns,
		})
	}
	return records, nil
}
