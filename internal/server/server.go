package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/config"
	"github.com/lydiaBn/mcp-market-research-agent/internal/mcp"
	"github.com/lydiaBn/mcp-market-research-agent/internal/research"
)

// 请求体上限 10 MiB
const maxBodyBytes = 10 << 20

// Server 市场调研 HTTP 服务器
type Server struct {
	config     *config.Config
	service    *research.Service
	mcpHandler *mcp.Handler
	log        *zap.Logger

	sessions   map[string]*Session
	sessionsMu sync.RWMutex
	sessionTTL time.Duration

	httpServer *http.Server
	done       chan struct{}
	closeOnce  sync.Once
}

// New 创建新的服务器实例
func New(cfg *config.Config, svc *research.Service, log *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		service:    svc,
		mcpHandler: mcp.NewHandler(svc, cfg.MCP.ServerName, cfg.MCP.ServerVersion, log),
		log:        log,
		sessions:   make(map[string]*Session),
		sessionTTL: defaultSessionTTL,
		done:       make(chan struct{}),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Handler 路由加中间件
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 工具端点
	mux.HandleFunc("POST /"+research.ToolSearch, toolHandler(s.service.Search))
	mux.HandleFunc("POST /"+research.ToolVisualize, toolHandler(s.service.Visualize))
	mux.HandleFunc("POST /"+research.ToolNarrate, toolHandler(s.service.Narrate))
	mux.HandleFunc("POST /"+research.ToolAnalyze, toolHandler(s.service.Analyze))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	// MCP 端点
	mux.HandleFunc("/mcp", s.handleMCP)

	// SSE 端点（兼容旧客户端）
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.HandleFunc("POST /messages", s.handleMessages)

	var handler http.Handler = s.recoverer(mux)
	handler = s.requestLogger(handler)

	if s.config.Server.CORS.Enabled {
		c := cors.New(cors.Options{
			AllowedOrigins: []string{s.config.Server.CORS.Origin},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "mcp-session-id", "X-Request-ID"},
			ExposedHeaders: []string{"mcp-session-id", "X-Request-ID"},
		})
		handler = c.Handler(handler)
	}
	return handler
}

// Start 启动 HTTP 服务器，Shutdown 后返回 nil
func (s *Server) Start() error {
	s.log.Info("starting HTTP server",
		zap.String("addr", s.httpServer.Addr),
		zap.Strings("tools", []string{research.ToolSearch, research.ToolVisualize, research.ToolNarrate, research.ToolAnalyze}),
		zap.String("mcp", "/mcp"),
		zap.String("sse", "/sse"))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 关闭 SSE 流并等待进行中的请求完成
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.httpServer.Shutdown(ctx)
}

// toolHandler 解析请求体并执行操作，任何结果都以 200 + 信封返回
func toolHandler[Req, Resp any](op func(context.Context, Req) research.Result[Resp]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := decodeBody(w, r, &req); err != nil {
			writeJSON(w, research.Fail[Resp](err))
			return
		}
		writeJSON(w, op(r.Context(), req))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return research.Invalid("request body exceeds %d bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return research.Invalid("request body is empty")
		default:
			return research.Invalid("malformed JSON body: %v", err)
		}
	}
	return nil
}

// handleHealth 健康检查端点
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, research.Health())
}

func writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(research.Fail[struct{}](err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// clearWriteDeadline 长连接不受 WriteTimeout 限制
func clearWriteDeadline(w http.ResponseWriter) {
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
}
