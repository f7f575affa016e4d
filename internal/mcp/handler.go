package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/lydiaBn/mcp-market-research-agent/internal/research"
)

const (
	MCPVersion = "2024-11-05"
)

// Handler MCP 请求处理器
type Handler struct {
	service *research.Service
	info    ServerInfo
	log     *zap.Logger
}

// NewHandler 创建 MCP 处理器
func NewHandler(svc *research.Service, name, version string, log *zap.Logger) *Handler {
	return &Handler{
		service: svc,
		info:    ServerInfo{Name: name, Version: version},
		log:     log,
	}
}

// HandleRequest 处理 MCP JSON-RPC 请求，通知类请求返回 false
func (h *Handler) HandleRequest(ctx context.Context, req JSONRPCRequest) (JSONRPCResponse, bool) {
	h.log.Debug("mcp request", zap.String("method", req.Method), zap.Any("id", req.ID))

	if req.IsNotification() {
		return JSONRPCResponse{}, false
	}

	var result any
	var rpcErr *RPCError

	switch req.Method {
	case "initialize":
		result = InitializeResult{
			ProtocolVersion: MCPVersion,
			Capabilities:    Capability{Tools: ToolCapability{ListChanged: false}},
			ServerInfo:      h.info,
		}
	case "ping":
		result = struct{}{}
	case "tools/list":
		result = ListToolsResult{Tools: Tools()}
	case "tools/call":
		result, rpcErr = h.handleToolsCall(ctx, req.Params)
	case "resources/list":
		result = ListResourcesResult{Resources: []any{}}
	case "prompts/list":
		result = ListPromptsResult{Prompts: []any{}}
	default:
		rpcErr = &RPCError{Code: CodeMethodNotFound, Message: "unknown method: " + req.Method}
	}

	if rpcErr != nil {
		h.log.Warn("mcp error", zap.String("method", req.Method), zap.String("error", rpcErr.Message))
		return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}, true
	}

	return JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}, true
}

// handleToolsCall 调用工具，返回的文本就是 HTTP 端点的响应体
func (h *Handler) handleToolsCall(ctx context.Context, params json.RawMessage) (*CallToolResult, *RPCError) {
	var callParams CallToolParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid tool call params: " + err.Error()}
	}

	h.log.Info("tool call", zap.String("tool", callParams.Name))

	var env research.Envelope
	switch callParams.Name {
	case research.ToolSearch:
		env = call(ctx, callParams.Arguments, h.service.Search)
	case research.ToolVisualize:
		env = call(ctx, callParams.Arguments, h.service.Visualize)
	case research.ToolNarrate:
		env = call(ctx, callParams.Arguments, h.service.Narrate)
	case research.ToolAnalyze:
		env = call(ctx, callParams.Arguments, h.service.Analyze)
	default:
		return nil, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", callParams.Name)}
	}

	text, err := json.Marshal(env)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: "failed to encode result: " + err.Error()}
	}

	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: string(text)}},
		IsError: !env.Success(),
	}, nil
}

// call 解析参数并执行操作，参数错误也以失败信封返回
func call[Req, Resp any](ctx context.Context, args json.RawMessage, op func(context.Context, Req) research.Result[Resp]) research.Envelope {
	var req Req
	if args = bytes.TrimSpace(args); len(args) > 0 && !bytes.Equal(args, []byte("null")) {
		if err := json.Unmarshal(args, &req); err != nil {
			return research.Fail[Resp](research.Invalid("malformed arguments: %v", err))
		}
	}
	return op(ctx, req)
}
