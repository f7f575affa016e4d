package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/mcp"
)

const sessionHeader = "mcp-session-id"

// 心跳间隔
var keepAliveInterval = 30 * time.Second

// /mcp 会话空闲超过该时长后被清理
const defaultSessionTTL = 30 * time.Minute

// Session 会话信息，只用于传输层，不保存业务状态
type Session struct {
	ID        string
	CreatedAt time.Time
	// legacy 为 true 表示由 /sse 创建，只有这类会话接受 /messages
	legacy   bool
	lastSeen atomic.Int64
	// 旧版 SSE 传输的响应通道
	events chan []byte
}

func (sess *Session) touch(now time.Time) {
	sess.lastSeen.Store(now.UnixNano())
}

func (sess *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, sess.lastSeen.Load()))
}

func (s *Server) newSession(legacy bool) *Session {
	now := time.Now()
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		legacy:    legacy,
		events:    make(chan []byte, 16),
	}
	sess.touch(now)

	s.sessionsMu.Lock()
	s.pruneLocked(now)
	s.sessions[sess.ID] = sess
	s.sessionsMu.Unlock()
	return sess
}

// pruneLocked 删除空闲过久的 /mcp 会话，SSE 会话随连接关闭而删除
func (s *Server) pruneLocked(now time.Time) {
	for id, sess := range s.sessions {
		if !sess.legacy && sess.idleSince(now) > s.sessionTTL {
			delete(s.sessions, id)
			s.log.Info("session expired", zap.String("session_id", id))
		}
	}
}

func (s *Server) session(id string) (*Session, bool) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) deleteSession(id string) {
	s.sessionsMu.Lock()
	delete(s.sessions, id)
	s.sessionsMu.Unlock()
}

// handleMCP 处理 MCP 请求
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleMCPPost(w, r)
	case http.MethodGet:
		s.handleMCPGet(w, r)
	case http.MethodDelete:
		s.handleMCPDelete(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleMCPPost 处理 MCP POST 请求
func (s *Server) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	var req mcp.JSONRPCRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendRPC(w, mcp.ErrorResponse(nil, mcp.CodeParseError, "Parse error: "+err.Error()))
		return
	}

	// 初始化请求创建新会话，已有会话则刷新活跃时间
	if id := r.Header.Get(sessionHeader); id != "" {
		if sess, ok := s.session(id); ok {
			sess.touch(time.Now())
		}
	} else if req.Method == "initialize" {
		sess := s.newSession(false)
		w.Header().Set(sessionHeader, sess.ID)
		s.log.Info("session created", zap.String("session_id", sess.ID))
	}

	resp, ok := s.mcpHandler.HandleRequest(r.Context(), req)
	if !ok {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	s.sendRPC(w, resp)
}

// handleMCPGet 处理 MCP GET 请求（SSE 流）
func (s *Server) handleMCPGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}
	sess, exists := s.session(sessionID)
	if !exists {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}

	flusher, ok := startSSE(w)
	if !ok {
		return
	}

	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	flusher.Flush()

	s.streamEvents(w, r, flusher, sess)
}

// handleMCPDelete 处理 MCP DELETE 请求（关闭会话）
func (s *Server) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		http.Error(w, "Missing session ID", http.StatusBadRequest)
		return
	}

	s.deleteSession(sessionID)
	s.log.Info("session deleted", zap.String("session_id", sessionID))
	w.WriteHeader(http.StatusOK)
}

// handleSSE 旧版 SSE 传输：先下发消息端点，之后的响应都通过这条流推送
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := startSSE(w)
	if !ok {
		return
	}

	sess := s.newSession(true)
	defer func() {
		s.deleteSession(sess.ID)
		s.log.Info("sse connection closed", zap.String("session_id", sess.ID))
	}()

	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.ID)
	flusher.Flush()
	s.log.Info("sse connection established", zap.String("session_id", sess.ID))

	s.streamEvents(w, r, flusher, sess)
}

// handleMessages 旧版 SSE 传输的请求入口，响应写入对应会话的流
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.URL.Query().Get("sessionId"))
	if !ok || !sess.legacy {
		http.Error(w, "Invalid session ID", http.StatusNotFound)
		return
	}

	var req mcp.JSONRPCRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendRPC(w, mcp.ErrorResponse(nil, mcp.CodeParseError, "Parse error: "+err.Error()))
		return
	}

	resp, hasResp := s.mcpHandler.HandleRequest(r.Context(), req)
	if hasResp {
		data, err := json.Marshal(resp)
		if err != nil {
			s.log.Error("failed to encode response", zap.Error(err))
			http.Error(w, "encode error", http.StatusInternalServerError)
			return
		}
		select {
		case sess.events <- data:
		case <-r.Context().Done():
			return
		case <-s.done:
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusAccepted)
}

func startSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil, false
	}
	clearWriteDeadline(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}

// streamEvents 推送会话消息并定期发送心跳，直到连接断开或服务关闭
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, flusher http.Flusher, sess *Session) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.done:
			return
		case data := <-sess.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
			sess.touch(time.Now())
		case <-ticker.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
			sess.touch(time.Now())
		}
	}
}

// sendRPC 发送 JSON-RPC 响应
func (s *Server) sendRPC(w http.ResponseWriter, resp mcp.JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}
