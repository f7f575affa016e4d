package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout 外部搜索调用超时
var ErrTimeout = errors.New("search provider timeout")

// Depth 搜索深度
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// Result 单条搜索结果
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// Request 搜索请求
type Request struct {
	Query      string
	Depth      Depth
	MaxResults int
}

// Provider 搜索提供方接口
type Provider interface {
	// Name 返回提供方名称
	Name() string
	// Search 执行搜索，结果按提供方排序返回
	Search(ctx context.Context, req Request) ([]Result, error)
}

// classify 把超时类错误统一成 ErrTimeout
func classify(ctx context.Context, err error) error {
	if err == nil || errors.Is(err, ErrTimeout) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "Client.Timeout") {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
