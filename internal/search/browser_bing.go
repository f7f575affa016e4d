package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// BrowserBingProvider 使用无头浏览器渲染 Bing 结果页
type BrowserBingProvider struct {
	browser *Browser
	log     *zap.Logger
}

// NewBrowserBingProvider 创建浏览器版 Bing 提供方
func NewBrowserBingProvider(browser *Browser, log *zap.Logger) *BrowserBingProvider {
	return &BrowserBingProvider{
		browser: browser,
		log:     log.With(zap.String("provider", "browser_bing")),
	}
}

// Name 返回提供方名称
func (p *BrowserBingProvider) Name() string {
	return "browser_bing"
}

// Search 使用浏览器执行 Bing 搜索
func (p *BrowserBingProvider) Search(ctx context.Context, req Request) ([]Result, error) {
	tabCtx, cancel, err := p.browser.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer cancel()

	searchURL := bingURL + "?q=" + url.QueryEscape(req.Query) + "&setlang=en"

	var html string
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible("#b_results", chromedp.ByID),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, classify(ctx, fmt.Errorf("browser navigation failed: %w", err))
	}

	results, err := parseBrowserBing(html, req.MaxResults)
	if err != nil {
		return nil, err
	}

	p.log.Debug("search completed", zap.String("query", req.Query), zap.Int("results", len(results)))
	return results, nil
}

// parseBrowserBing 解析渲染后的页面，过滤站内链接
func parseBrowserBing(html string, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var results []Result
	for _, r := range parseBing(doc.Selection, 0) {
		if strings.Contains(r.URL, "bing.com") || strings.Contains(r.URL, "microsoft.com") {
			continue
		}
		results = append(results, r)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
