package search

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// newHTTPClient 创建带超时和可选代理的 HTTP 客户端
// withJar 为 true 时携带 cookie（HTML 抓取类提供方需要）
func newHTTPClient(timeout time.Duration, proxyURL string, withJar bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if proxy, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxy)
		}
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	if withJar {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}
	return client
}

// setBrowserHeaders 模拟浏览器请求头
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
}
