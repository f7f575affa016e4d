package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Row 一行数据，保留 JSON 中键的出现顺序
type Row struct {
	keys   []string
	values map[string]any
}

// NewRow 按给定顺序构造一行，keys 与 values 一一对应
func NewRow(keys []string, values []any) Row {
	r := Row{values: make(map[string]any, len(keys))}
	for i, k := range keys {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.set(k, v)
	}
	return r
}

// Keys 列名（首次出现顺序）
func (r Row) Keys() []string {
	return r.keys
}

// Get 取值，缺失时 ok 为 false
func (r Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Row) set(key string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// UnmarshalJSON 逐 token 解码对象，记录键顺序；重复键取最后一个值
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("each data row must be a JSON object")
	}

	*r = Row{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in data row", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode value of %q: %w", key, err)
		}
		r.set(key, v)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON 按原顺序输出
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Columns 所有行的列名并集，按首次出现顺序
func Columns(rows []Row) []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range rows {
		for _, k := range row.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return cols
}
