package mcp

import (
	"github.com/lydiaBn/mcp-market-research-agent/internal/research"
)

// Tools 所有 MCP 工具定义，与 HTTP 端点一一对应
func Tools() []Tool {
	return []Tool{
		{
			Name:        research.ToolSearch,
			Description: "Search the web for real-time market data and return the top results with a readable summary.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "Market research query",
					},
					"search_depth": {
						Type:        "string",
						Description: "Search depth",
						Default:     "advanced",
						Enum:        []string{"basic", "advanced"},
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        research.ToolVisualize,
			Description: "Build a Plotly chart from tabular rows and return the figure as JSON.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"data": {
						Type:        "array",
						Description: "Rows of key/value objects; the first key is the default x column and the second the default y column",
						Items:       &Items{Type: "object"},
						MinItems:    1,
					},
					"title": {
						Type:        "string",
						Description: "Chart title",
					},
					"chart_type": {
						Type:        "string",
						Description: "Chart type; unknown values render as bar",
						Default:     "bar",
						Enum:        []string{"bar", "line", "scatter", "pie"},
					},
					"x_column": {
						Type:        "string",
						Description: "Column for the x axis (pie labels)",
					},
					"y_column": {
						Type:        "string",
						Description: "Column for the y axis (pie values)",
					},
				},
				Required: []string{"data", "title"},
			},
		},
		{
			Name:        research.ToolNarrate,
			Description: "Convert market insights to speech and return base64 encoded mp3 audio.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"text": {
						Type:        "string",
						Description: "Text to narrate",
					},
					"voice": {
						Type:        "string",
						Description: "ElevenLabs voice id",
						Default:     "21m00Tcm4TlvDq8ikWAM",
					},
				},
				Required: []string{"text"},
			},
		},
		{
			Name:        research.ToolAnalyze,
			Description: "Run one search per aspect of a topic and aggregate the findings into a sectioned report.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"topic": {
						Type:        "string",
						Description: "Market or industry to analyze",
					},
					"aspects": {
						Type:        "array",
						Description: "Aspects to cover, in report order",
						Items:       &Items{Type: "string"},
						Default:     research.DefaultAspects,
					},
				},
				Required: []string{"topic"},
			},
		},
	}
}
