package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const bingURL = "https://www.bing.com/search"

// Bing 的结果页结构时有变化，按顺序尝试
var bingSelectors = []string{
	"#b_results > li.b_algo",
	"li.b_algo",
	".b_algo",
}

// BingProvider Bing 国际版 HTML 抓取
type BingProvider struct {
	searchURL string
	client    *http.Client
	log       *zap.Logger
}

// NewBingProvider 创建 Bing 提供方
func NewBingProvider(timeout time.Duration, proxyURL string, log *zap.Logger) *BingProvider {
	return &BingProvider{
		searchURL: bingURL,
		client:    newHTTPClient(timeout, proxyURL, true),
		log:       log.With(zap.String("provider", "bing")),
	}
}

// Name 返回提供方名称
func (b *BingProvider) Name() string {
	return "bing"
}

// Search 执行 Bing 搜索（单页足够覆盖结果上限）
func (b *BingProvider) Search(ctx context.Context, req Request) ([]Result, error) {
	q := url.Values{}
	q.Set("q", req.Query)
	q.Set("setlang", "en")
	if req.MaxResults > 0 {
		q.Set("count", fmt.Sprint(req.MaxResults))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, b.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	setBrowserHeaders(httpReq)
	httpReq.Header.Set("Sec-Fetch-Dest", "document")
	httpReq.Header.Set("Sec-Fetch-Mode", "navigate")
	httpReq.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := b.client.Do(httpReq)
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

	results := parseBing(doc.Selection, req.MaxResults)
	b.log.Debug("search completed", zap.String("query", req.Query), zap.Int("results", len(results)))
	return results, nil
}

// parseBing 解析 b_algo 结果块，也供 browser_bing 复用
func parseBing(root *goquery.Selection, limit int) []Result {
	var results []Result

	for _, selector := range bingSelectors {
		root.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if limit > 0 && len(results) >= limit {
				return false
			}

			linkEl := s.Find("h2 a").First()
			href, exists := linkEl.Attr("href")
			if !exists {
				return true
			}
			href = bingRealURL(href)
			if !strings.HasPrefix(href, "http") {
				return true
			}

			var content string
			for _, descSel := range []string{".b_caption p", "p", ".b_algoSlug"} {
				content = strings.TrimSpace(s.Find(descSel).First().Text())
				if content != "" {
					break
				}
			}

			results = append(results, Result{
				Title:   strings.TrimSpace(s.Find("h2").First().Text()),
				URL:     href,
				Content: content,
			})
			return true
		})

		if len(results) > 0 {
			break
		}
	}

	return results
}

// bingRealURL 还原 bing.com/ck/a 跳转链接
func bingRealURL(href string) string {
	if !strings.Contains(href, "bing.com/ck/a") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u := parsed.Query().Get("u"); strings.HasPrefix(u, "a1") {
		if decoded, err := decodeBase64URL(u[2:]); err == nil {
			return decoded
		}
	}
	return href
}

func decodeBase64URL(s string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
