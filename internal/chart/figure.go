// Package chart builds Plotly figure documents from tabular rows.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmptyData 没有任何数据行或列
	ErrEmptyData = errors.New("data must contain at least one row with one column")
	// ErrUnknownColumn 指定的列不存在
	ErrUnknownColumn = errors.New("column not found in data")
)

// Type 图表类型
type Type int

const (
	Bar Type = iota
	Line
	Scatter
	Pie
)

var typeNames = map[Type]string{
	Bar:     "bar",
	Line:    "line",
	Scatter: "scatter",
	Pie:     "pie",
}

// ParseType 只认精确的小写类型名，其余一律按柱状图处理
func ParseType(s string) Type {
	switch s {
	case "line":
		return Line
	case "scatter":
		return Scatter
	case "pie":
		return Pie
	default:
		return Bar
	}
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "bar"
}

// UnmarshalText 让请求体里的 chart_type 直接解析成 Type
func (t *Type) UnmarshalText(text []byte) error {
	*t = ParseType(string(text))
	return nil
}

// MarshalText 输出类型名
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Figure Plotly 图表文档
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace 单条数据系列
type Trace struct {
	Type   string `json:"type"`
	Mode   string `json:"mode,omitempty"`
	X      []any  `json:"x,omitempty"`
	Y      []any  `json:"y,omitempty"`
	Labels []any  `json:"labels,omitempty"`
	Values []any  `json:"values,omitempty"`
}

// Layout 图表布局
type Layout struct {
	Title        *Text  `json:"title,omitempty"`
	XAxis        *Axis  `json:"xaxis,omitempty"`
	YAxis        *Axis  `json:"yaxis,omitempty"`
	PaperBgcolor string `json:"paper_bgcolor"`
	PlotBgcolor  string `json:"plot_bgcolor"`
	Font         Font   `json:"font"`
	Margin       Margin `json:"margin"`
}

type Text struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Text `json:"title"`
}

type Font struct {
	Family string `json:"family"`
	Size   int    `json:"size"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

const transparent = "rgba(0,0,0,0)"

// Build 根据数据行生成图表
// x 默认为第一列，y 默认为第二列（只有一列时同 x）
func Build(rows []Row, title string, t Type, xColumn, yColumn string) (Figure, error) {
	cols := Columns(rows)
	if len(cols) == 0 {
		return Figure{}, ErrEmptyData
	}

	x, err := pickColumn(cols, xColumn, cols[0])
	if err != nil {
		return Figure{}, err
	}
	yDefault := cols[0]
	if len(cols) > 1 {
		yDefault = cols[1]
	}
	y, err := pickColumn(cols, yColumn, yDefault)
	if err != nil {
		return Figure{}, err
	}

	xs := column(rows, x)
	ys := column(rows, y)

	layout := Layout{
		PaperBgcolor: transparent,
		PlotBgcolor:  transparent,
		Font:         Font{Family: "Arial", Size: 12},
		Margin:       Margin{L: 40, R: 40, T: 60, B: 40},
	}
	if title != "" {
		layout.Title = &Text{Text: title}
	}

	var trace Trace
	switch t {
	case Bar:
		trace = Trace{Type: "bar", X: xs, Y: ys}
	case Line:
		trace = Trace{Type: "scatter", Mode: "lines", X: xs, Y: ys}
	case Scatter:
		trace = Trace{Type: "scatter", Mode: "markers", X: xs, Y: ys}
	case Pie:
		trace = Trace{Type: "pie", Labels: xs, Values: ys}
	default:
		return Figure{}, fmt.Errorf("unsupported chart type %d", int(t))
	}

	if t != Pie {
		layout.XAxis = &Axis{Title: Text{Text: x}}
		layout.YAxis = &Axis{Title: Text{Text: y}}
	}

	return Figure{Data: []Trace{trace}, Layout: layout}, nil
}

// JSON 序列化为字符串
func (f Figure) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func pickColumn(cols []string, requested, fallback string) (string, error) {
	if requested == "" {
		return fallback, nil
	}
	for _, c := range cols {
		if c == requested {
			return requested, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownColumn, requested)
}

// column 取某列的值，缺失为 nil（序列化为 null）
func column(rows []Row, name string) []any {
	out := make([]any, len(rows))
	for i, row := range rows {
		if v, ok := row.Get(name); ok {
			out[i] = v
		}
	}
	return out
}
