package research

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope 对外响应的统一外壳，HTTP 与 MCP 两侧都只依赖这个接口
type Envelope interface {
	json.Marshaler
	Success() bool
	Err() error
}

// Result 成功时携带 payload，失败时携带错误，两者互斥
type Result[T any] struct {
	payload T
	err     error
}

// OK 成功结果
func OK[T any](payload T) Result[T] {
	return Result[T]{payload: payload}
}

// Fail 失败结果
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	return Result[T]{err: err}
}

// Success 是否成功
func (r Result[T]) Success() bool {
	return r.err == nil
}

// Err 失败原因，成功时为 nil
func (r Result[T]) Err() error {
	return r.err
}

// Payload 成功时返回 payload
func (r Result[T]) Payload() (T, bool) {
	return r.payload, r.err == nil
}

type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON 输出 {"success":true,...payload} 或 {"success":false,"error":...}
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.err != nil {
		return json.Marshal(failure{Success: false, Error: r.err.Error()})
	}

	body, err := json.Marshal(r.payload)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("envelope payload must encode as a JSON object, got %T", r.payload)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"success":true`)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
