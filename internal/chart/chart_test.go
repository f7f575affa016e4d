package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRows(t *testing.T, raw string) []Row {
	t.Helper()
	var rows []Row
	require.NoError(t, json.Unmarshal([]byte(raw), &rows))
	return rows
}

func TestRowKeepsKeyOrder(t *testing.T) {
	rows := decodeRows(t, `[{"zeta":1,"alpha":"x","mid":null},{"alpha":2,"omega":true}]`)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, rows[0].Keys())
	assert.Equal(t, []string{"zeta", "alpha", "mid", "omega"}, Columns(rows))

	out, err := json.Marshal(rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"zeta":1,"alpha":"x","mid":null}`, string(out))
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":null}`, string(out))
}

func TestRowDuplicateKeyKeepsFirstPosition(t *testing.T) {
	rows := decodeRows(t, `[{"a":1,"b":2,"a":3}]`)

	assert.Equal(t, []string{"a", "b"}, rows[0].Keys())
	v, _ := rows[0].Get("a")
	assert.Equal(t, json.Number("3"), v)
}

func TestRowRejectsNonObject(t *testing.T) {
	var rows []Row
	assert.Error(t, json.Unmarshal([]byte(`[[1,2]]`), &rows))
	assert.Error(t, json.Unmarshal([]byte(`[42]`), &rows))
}

func TestBuildBarDefaults(t *testing.T) {
	rows := decodeRows(t, `[{"a":1,"b":2},{"a":3,"b":4}]`)

	fig, err := Build(rows, "T", Bar, "", "")
	require.NoError(t, err)
	require.Len(t, fig.Data, 1)

	tr := fig.Data[0]
	assert.Equal(t, "bar", tr.Type)
	assert.Equal(t, []any{json.Number("1"), json.Number("3")}, tr.X)
	assert.Equal(t, []any{json.Number("2"), json.Number("4")}, tr.Y)
	assert.Equal(t, "a", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, "b", fig.Layout.YAxis.Title.Text)
	assert.Equal(t, "T", fig.Layout.Title.Text)

	out, err := fig.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data":[{"type":"bar","x":[1,3],"y":[2,4]}],
		"layout":{
			"title":{"text":"T"},
			"xaxis":{"title":{"text":"a"}},
			"yaxis":{"title":{"text":"b"}},
			"paper_bgcolor":"rgba(0,0,0,0)",
			"plot_bgcolor":"rgba(0,0,0,0)",
			"font":{"family":"Arial","size":12},
			"margin":{"l":40,"r":40,"t":60,"b":40}
		}
	}`, out)
}

func TestBuildUnknownTypeMatchesBar(t *testing.T) {
	rows := decodeRows(t, `[{"year":2022,"sales":10},{"year":2023,"sales":14}]`)

	bar, err := Build(rows, "Sales", ParseType("bar"), "", "")
	require.NoError(t, err)
	unknown, err := Build(rows, "Sales", ParseType("heatmap"), "", "")
	require.NoError(t, err)

	barJSON, _ := bar.JSON()
	unknownJSON, _ := unknown.JSON()
	assert.Equal(t, barJSON, unknownJSON)
}

func TestBuildTraceKinds(t *testing.T) {
	rows := decodeRows(t, `[{"k":"A","v":1},{"k":"B","v":2}]`)

	tests := []struct {
		name string
		typ  Type
		want Trace
	}{
		{"line", Line, Trace{Type: "scatter", Mode: "lines", X: []any{"A", "B"}, Y: []any{json.Number("1"), json.Number("2")}}},
		{"scatter", Scatter, Trace{Type: "scatter", Mode: "markers", X: []any{"A", "B"}, Y: []any{json.Number("1"), json.Number("2")}}},
		{"pie", Pie, Trace{Type: "pie", Labels: []any{"A", "B"}, Values: []any{json.Number("1"), json.Number("2")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := Build(rows, "", tt.typ, "", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, fig.Data[0])
			assert.Nil(t, fig.Layout.Title)
		})
	}

	pie, _ := Build(rows, "", Pie, "", "")
	assert.Nil(t, pie.Layout.XAxis)
}

func TestBuildSingleColumn(t *testing.T) {
	rows := decodeRows(t, `[{"only":5},{"only":6}]`)

	fig, err := Build(rows, "", Bar, "", "")
	require.NoError(t, err)
	assert.Equal(t, fig.Data[0].X, fig.Data[0].Y)
	assert.Equal(t, "only", fig.Layout.XAxis.Title.Text)
	assert.Equal(t, "only", fig.Layout.YAxis.Title.Text)
}

func TestBuildMissingValuesAreNull(t *testing.T) {
	rows := decodeRows(t, `[{"a":1,"b":2},{"a":3}]`)

	fig, err := Build(rows, "", Bar, "", "")
	require.NoError(t, err)
	out, _ := fig.JSON()
	assert.Contains(t, out, `"y":[2,null]`)
}

func TestBuildExplicitColumns(t *testing.T) {
	rows := decodeRows(t, `[{"a":1,"b":2,"c":3}]`)

	fig, err := Build(rows, "", Bar, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("3")}, fig.Data[0].X)
	assert.Equal(t, []any{json.Number("1")}, fig.Data[0].Y)

	_, err = Build(rows, "", Bar, "missing", "")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	_, err = Build(rows, "", Bar, "", "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(nil, "", Bar, "", "")
	assert.ErrorIs(t, err, ErrEmptyData)

	_, err = Build(decodeRows(t, `[{}]`), "", Bar, "", "")
	assert.ErrorIs(t, err, ErrEmptyData)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, Line, ParseType("line"))
	assert.Equal(t, Pie, ParseType("pie"))
	assert.Equal(t, Bar, ParseType("LINE"))
	assert.Equal(t, Bar, ParseType(" pie "))
	assert.Equal(t, Bar, ParseType("Scatter"))
	assert.Equal(t, Bar, ParseType(""))
	assert.Equal(t, Bar, ParseType("histogram"))

	var req struct {
		ChartType Type `json:"chart_type"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"scatter"}`), &req))
	assert.Equal(t, Scatter, req.ChartType)
	require.NoError(t, json.Unmarshal([]byte(`{"chart_type":"bubble"}`), &req))
	assert.Equal(t, Bar, req.ChartType)
}
