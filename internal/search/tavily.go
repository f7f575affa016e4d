package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TavilyProvider Tavily 搜索 API
type TavilyProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

// NewTavilyProvider 创建 Tavily 提供方
func NewTavilyProvider(baseURL, apiKey string, timeout time.Duration, proxyURL string, log *zap.Logger) *TavilyProvider {
	return &TavilyProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: newHTTPClient(timeout, proxyURL, false),
		log:        log.With(zap.String("provider", "tavily")),
	}
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       Depth  `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

// Name 返回提供方名称
func (t *TavilyProvider) Name() string {
	return "tavily"
}

// Search 调用 Tavily /search
func (t *TavilyProvider) Search(ctx context.Context, req Request) ([]Result, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("tavily api key is not configured")
	}

	depth := req.Depth
	if depth == "" {
		depth = DepthAdvanced
	}

	jsonBody, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       req.Query,
		SearchDepth: depth,
		MaxResults:  req.MaxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to search: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned status %d: %s", resp.StatusCode, string(body))
	}

	var tavilyResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tavilyResp); err != nil {
		return nil, classify(ctx, fmt.Errorf("failed to decode response: %w", err))
	}

	results := make([]Result, 0, len(tavilyResp.Results))
	for _, r := range tavilyResp.Results {
		results = append(results, Result{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
		})
	}

	t.log.Debug("search completed", zap.String("query", req.Query), zap.Int("results", len(results)))
	return results, nil
}
