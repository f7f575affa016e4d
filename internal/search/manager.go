package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/config"
	"github.com/lydiaBn/mcp-market-research-agent/internal/metrics"
)

// Manager 搜索提供方注册表，对外表现为默认提供方
type Manager struct {
	providers   map[string]Provider
	defaultName string
	timeout     time.Duration
	browser     *Browser
	log         *zap.Logger
	mu          sync.RWMutex
}

// NewManager 按配置注册所有可用的提供方
func NewManager(cfg *config.Config, log *zap.Logger) *Manager {
	m := newManager(cfg.Search.Provider, cfg.Timeouts.Search, log)

	proxyURL := cfg.ProxyURL()
	m.Register(NewTavilyProvider(cfg.Tavily.BaseURL, cfg.Tavily.APIKey, cfg.Timeouts.Search, proxyURL, log))
	m.Register(NewDuckDuckGoProvider(cfg.Timeouts.Search, proxyURL, log))
	m.Register(NewBingProvider(cfg.Timeouts.Search, proxyURL, log))

	if cfg.Browser.Enabled {
		m.browser = NewBrowser(proxyURL, cfg.Browser.Headless, log)
		m.Register(NewBrowserBingProvider(m.browser, log))
	}

	log.Info("search providers initialized",
		zap.Strings("providers", m.Names()),
		zap.String("default", m.defaultName))
	return m
}

func newManager(defaultName string, timeout time.Duration, log *zap.Logger) *Manager {
	return &Manager{
		providers:   make(map[string]Provider),
		defaultName: defaultName,
		timeout:     timeout,
		log:         log,
	}
}

// Register 注册提供方，同名覆盖
func (m *Manager) Register(p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.Name()] = p
}

// Get 按名称获取提供方
func (m *Manager) Get(name string) (Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[name]
	return p, ok
}

// Names 已注册的提供方名称（排序）
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name 返回默认提供方名称
func (m *Manager) Name() string {
	return m.defaultName
}

// Search 使用默认提供方搜索，附带超时和指标
func (m *Manager) Search(ctx context.Context, req Request) ([]Result, error) {
	p, ok := m.Get(m.defaultName)
	if !ok {
		return nil, fmt.Errorf("search provider %q is not registered", m.defaultName)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := p.Search(ctx, req)
	metrics.ObserveUpstream(p.Name(), start, err)
	if err != nil {
		// 失败日志由调用方统一输出
		return nil, classify(ctx, fmt.Errorf("%s search failed: %w", p.Name(), err))
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	m.log.Debug("search completed",
		zap.String("provider", p.Name()),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

// Close 释放浏览器等资源
func (m *Manager) Close() {
	if m.browser != nil {
		m.browser.Close()
	}
}
