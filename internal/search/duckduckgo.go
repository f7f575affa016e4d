package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const duckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoProvider DuckDuckGo HTML 版抓取，无需 API Key
type DuckDuckGoProvider struct {
	searchURL string
	client    *http.Client
	log       *zap.Logger
}

// NewDuckDuckGoProvider 创建 DuckDuckGo 提供方
func NewDuckDuckGoProvider(timeout time.Duration, proxyURL string, log *zap.Logger) *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		searchURL: duckDuckGoURL,
		client:    newHTTPClient(timeout, proxyURL, true),
		log:       log.With(zap.String("provider", "duckduckgo")),
	}
}

// Name 返回提供方名称
func (d *DuckDuckGoProvider) Name() string {
	return "duckduckgo"
}

// Search 执行 DuckDuckGo 搜索
func (d *DuckDuckGoProvider) Search(ctx context.Context, req Request) ([]Result, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, d.searchURL+"?q="+url.QueryEscape(req.Query), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	setBrowserHeaders(httpReq)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("parse HTML failed: %w", err))
	}

	results := parseDuckDuckGo(doc, req.MaxResults)
	d.log.Debug("search completed", zap.String("query", req.Query), zap.Int("results", len(results)))
	return results, nil
}

// parseDuckDuckGo 解析 .result 结果块
func parseDuckDuckGo(doc *goquery.Document, limit int) []Result {
	var results []Result

	doc.Find(".result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if limit > 0 && len(results) >= limit {
			return false
		}

		linkEl := s.Find(".result__a")
		href, exists := linkEl.Attr("href")
		if !exists {
			return true
		}

		// 重定向链接，真实地址在 uddg 参数里
		if strings.HasPrefix(href, "//duckduckgo.com/l/") {
			if parsed, err := url.Parse("https:" + href); err == nil {
				href = parsed.Query().Get("uddg")
			}
		}
		if !strings.HasPrefix(href, "http") {
			return true
		}

		title := strings.TrimSpace(s.Find(".result__title").Text())
		if title == "" {
			title = strings.TrimSpace(linkEl.Text())
		}

		results = append(results, Result{
			Title:   title,
			URL:     href,
			Content: strings.TrimSpace(s.Find(".result__snippet").Text()),
		})
		return true
	})

	return results
}
