package search

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const duckDuckGoHTML = `<html><body>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fev.example%2Freport&rut=x">EV Report 2024</a></h2>
  <a class="result__snippet">Battery prices fell sharply.</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://direct.example">Direct</a></h2>
  <a class="result__snippet">Second snippet</a>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="/relative">Skipped</a></h2>
</div>
<div class="result">
  <h2 class="result__title"><a class="result__a" href="https://third.example">Third</a></h2>
</div>
</body></html>`

const bingHTML = `<html><body><ol id="b_results">
<li class="b_algo">
  <h2><a href="https://solar.example/outlook">Solar Outlook</a></h2>
  <div class="b_caption"><p>Installations doubled.</p></div>
</li>
<li class="b_algo">
  <h2><a href="%s">Wrapped Link</a></h2>
  <p>Plain paragraph</p>
</li>
<li class="b_algo">
  <h2><a href="https://www.bing.com/images">Bing Images</a></h2>
</li>
</ol></body></html>`

func wrappedBingLink(target string) string {
	return "https://www.bing.com/ck/a?!&&u=a1" + base64.RawURLEncoding.EncodeToString([]byte(target))
}

func TestParseDuckDuckGo(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(duckDuckGoHTML))
	require.NoError(t, err)

	results := parseDuckDuckGo(doc, 5)
	require.Len(t, results, 3)
	assert.Equal(t, Result{Title: "EV Report 2024", URL: "https://ev.example/report", Content: "Battery prices fell sharply."}, results[0])
	assert.Equal(t, "https://direct.example", results[1].URL)
	assert.Equal(t, "", results[2].Content)

	assert.Len(t, parseDuckDuckGo(doc, 1), 1)
}

func TestDuckDuckGoSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EV market", r.URL.Query().Get("q"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Write([]byte(duckDuckGoHTML))
	}))
	defer server.Close()

	p := NewDuckDuckGoProvider(time.Second, "", zap.NewNop())
	p.searchURL = server.URL
	results, err := p.Search(context.Background(), Request{Query: "EV market", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParseBing(t *testing.T) {
	html := strings.Replace(bingHTML, "%s", wrappedBingLink("https://wrapped.example/page"), 1)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	results := parseBing(doc.Selection, 0)
	require.Len(t, results, 3)
	assert.Equal(t, Result{Title: "Solar Outlook", URL: "https://solar.example/outlook", Content: "Installations doubled."}, results[0])
	assert.Equal(t, "https://wrapped.example/page", results[1].URL)
	assert.Equal(t, "Plain paragraph", results[1].Content)
}

func TestParseBrowserBingFiltersSiteLinks(t *testing.T) {
	html := strings.Replace(bingHTML, "%s", "https://other.example", 1)

	results, err := parseBrowserBing(html, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotContains(t, r.URL, "bing.com")
	}
}

func TestBingSearch(t *testing.T) {
	html := strings.Replace(bingHTML, "%s", "https://other.example", 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "solar", r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("count"))
		w.Write([]byte(html))
	}))
	defer server.Close()

	p := NewBingProvider(time.Second, "", zap.NewNop())
	p.searchURL = server.URL
	results, err := p.Search(context.Background(), Request{Query: "solar", MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestBingRealURL(t *testing.T) {
	assert.Equal(t, "https://plain.example", bingRealURL("https://plain.example"))
	assert.Equal(t, "https://x.example/a?b=1", bingRealURL(wrappedBingLink("https://x.example/a?b=1")))

	broken := "https://www.bing.com/ck/a?u=" + url.QueryEscape("zz")
	assert.Equal(t, broken, bingRealURL(broken))
}

func TestScraperStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewDuckDuckGoProvider(time.Second, "", zap.NewNop())
	p.searchURL = server.URL
	_, err := p.Search(context.Background(), Request{Query: "q"})
	assert.ErrorContains(t, err, "429")
}
