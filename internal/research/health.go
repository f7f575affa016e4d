package research

const (
	serviceName    = "MCP Market Research Server"
	serviceVersion = "2.0"
)

// Health 静态的服务元信息
func Health() HealthResponse {
	return HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Version: serviceVersion,
		Endpoints: []string{
			"/" + ToolSearch,
			"/" + ToolVisualize,
			"/" + ToolNarrate,
			"/" + ToolAnalyze,
		},
		Features: []string{
			"Real-time market data search",
			"Interactive visualizations",
			"Audio narration (base64 encoded)",
			"Comprehensive market analysis",
		},
	}
}
