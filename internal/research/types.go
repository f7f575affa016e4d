package research

import (
	"github.com/lydiaBn/mcp-market-research-agent/internal/chart"
	"github.com/lydiaBn/mcp-market-research-agent/internal/search"
)

// 工具名称，同时用作 HTTP 路径和 MCP 工具名
const (
	ToolSearch    = "market_search"
	ToolVisualize = "create_visualization"
	ToolNarrate   = "narrate_insights"
	ToolAnalyze   = "deep_market_analysis"
)

// DefaultAspects 未指定时的分析维度
var DefaultAspects = []string{"overview", "trends", "competition", "regulations"}

// SearchRequest 市场搜索请求
type SearchRequest struct {
	Query       string       `json:"query" validate:"required,notblank"`
	SearchDepth search.Depth `json:"search_depth,omitempty" validate:"omitempty,oneof=basic advanced"`
}

// SearchResponse 市场搜索结果
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
	Summary string          `json:"summary"`
}

// ChartRequest 可视化请求
type ChartRequest struct {
	Data      []chart.Row `json:"data" validate:"required,min=1"`
	Title     string      `json:"title"`
	ChartType chart.Type  `json:"chart_type"`
	XColumn   string      `json:"x_column,omitempty"`
	YColumn   string      `json:"y_column,omitempty"`
}

// ChartResponse 序列化后的 Plotly 图表
type ChartResponse struct {
	PlotJSON string `json:"plot_json"`
}

// NarrationRequest 语音播报请求
type NarrationRequest struct {
	Text  string `json:"text" validate:"required,notblank"`
	Voice string `json:"voice,omitempty"`
}

// NarrationResponse 语音播报结果
type NarrationResponse struct {
	Message        string `json:"message"`
	Text           string `json:"text"`
	Voice          string `json:"voice"`
	AudioSizeBytes int    `json:"audio_size_bytes"`
	AudioBase64    string `json:"audio_base64"`
	AudioFormat    string `json:"audio_format"`
}

// AnalysisRequest 深度分析请求
type AnalysisRequest struct {
	Topic   string   `json:"topic" validate:"required,notblank"`
	Aspects []string `json:"aspects,omitempty" validate:"omitempty,dive,notblank"`
}

// AspectResults 单个维度的原始结果
type AspectResults struct {
	Aspect  string          `json:"aspect"`
	Results []search.Result `json:"results"`
}

// AnalysisResponse 深度分析结果
type AnalysisResponse struct {
	Topic           string          `json:"topic"`
	Aspects         []string        `json:"aspects"`
	Analysis        string          `json:"analysis"`
	DetailedResults []AspectResults `json:"detailed_results"`
}

// HealthResponse 健康检查
type HealthResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Features  []string `json:"features"`
}
