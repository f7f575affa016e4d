package research

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeSuccess(t *testing.T) {
	res := OK(ChartResponse{PlotJSON: `{"data":[]}`})

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, `{"success":true,"plot_json":"{\"data\":[]}"}`, string(out))

	var generic map[string]any
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.NotContains(t, generic, "error")
}

func TestEnvelopeFailure(t *testing.T) {
	res := Fail[SearchResponse](errors.New("boom"))

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, `{"success":false,"error":"boom"}`, string(out))

	_, ok := res.Payload()
	assert.False(t, ok)
}

func TestEnvelopeEmptyPayloadAndNilError(t *testing.T) {
	out, err := json.Marshal(OK(struct{}{}))
	require.NoError(t, err)
	assert.Equal(t, `{"success":true}`, string(out))

	res := Fail[struct{}](nil)
	assert.False(t, res.Success())
	assert.EqualError(t, res.Err(), "unknown error")
}

func TestEnvelopeRejectsNonObjectPayload(t *testing.T) {
	_, err := json.Marshal(OK([]int{1}))
	assert.Error(t, err)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "日本", truncate("日本語", 2))
	assert.Equal(t, "abc", truncate("abc", 5))
}
