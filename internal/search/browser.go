package search

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Browser 无头浏览器管理，首次使用时才启动 Chrome
type Browser struct {
	proxyURL string
	headless bool
	log      *zap.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancelFunc  context.CancelFunc
	initialized bool
}

// NewBrowser 创建浏览器管理器
func NewBrowser(proxyURL string, headless bool, log *zap.Logger) *Browser {
	return &Browser{
		proxyURL: proxyURL,
		headless: headless,
		log:      log.With(zap.String("component", "browser")),
	}
}

// findChromePath 查找 Chrome 可执行文件路径
func findChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}

	var paths []string
	switch runtime.GOOS {
	case "darwin":
		paths = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "linux":
		paths = []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	case "windows":
		paths = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// initLocked 启动浏览器，调用方需持有 mu
func (b *Browser) initLocked() error {
	if b.initialized {
		return nil
	}

	chromePath := findChromePath()
	if chromePath == "" {
		return fmt.Errorf("chrome/chromium not found")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(chromePath),
		chromedp.Flag("headless", b.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(browserUserAgent),
	)
	if b.proxyURL != "" {
		opts = append(opts, chromedp.ProxyServer(b.proxyURL))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(b.log.Sugar().Debugf))

	// 预热
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.browserCtx = browserCtx
	b.cancelFunc = cancel
	b.initialized = true
	b.log.Info("browser initialized", zap.Bool("headless", b.headless), zap.String("path", chromePath))
	return nil
}

// NewTab 打开新标签页，ctx 取消或超时时标签页随之关闭
func (b *Browser) NewTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.initLocked(); err != nil {
		return nil, nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithDeadline(tabCtx, deadline)
		prev := tabCancel
		tabCancel = func() {
			timeoutCancel()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, tabCancel)

	return tabCtx, func() {
		stop()
		tabCancel()
	}, nil
}

// Close 关闭浏览器
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	b.cancelFunc()
	b.allocCancel()
	b.initialized = false
	b.log.Info("browser closed")
}
