package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ttracx/deepboreai/internal/models"
)

var testSize = ChartSize{Width: 640, Height: 240}

func TestRenderChart_SVG(t *testing.T) {
	history := []models.HistoryEntry{
		{Timestamp: "2025-03-01T08:00:00.1", PredictedROP: 10},
		{Timestamp: "2025-03-01T08:00:01.1", PredictedROP: 12.5},
		{Timestamp: "2025-03-01T08:00:02.1", PredictedROP: 11},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, history, testSize, FormatSVG))

	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "08:00:01")
	assert.Contains(t, out, "ROP")
}

func TestRenderChart_PNG(t *testing.T) {
	var buf bytes.Buffer
	history := []models.HistoryEntry{{Timestamp: "2025-03-01T08:00:00", PredictedROP: 10}, {Timestamp: "2025-03-01T08:00:01", PredictedROP: 11}}
	require.NoError(t, RenderChart(&buf, history, testSize, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestRenderChart_DegenerateData(t *testing.T) {
	cases := map[string][]models.HistoryEntry{
		"empty":  nil,
		"single": {{Timestamp: "2025-03-01T08:00:00", PredictedROP: 10}},
		"flat":   {{Timestamp: "2025-03-01T08:00:00", PredictedROP: 7}, {Timestamp: "2025-03-01T08:00:01", PredictedROP: 7}},
	}
	for name, history := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.NoError(t, RenderChart(&buf, history, testSize, FormatSVG))
			assert.NotZero(t, buf.Len())
		})
	}
}

func TestRenderChart_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderChart(&buf, nil, testSize, Format("gif")))
}

func TestXTicks(t *testing.T) {
	labels := make([]string, 50)
	for i := range labels {
		labels[i] = string(rune('a' + i%26))
	}
	ticks := xTicks(labels)
	assert.LessOrEqual(t, len(ticks), maxTicks+1)
	assert.Equal(t, 0.0, ticks[0].Value)
	assert.Equal(t, 49.0, ticks[len(ticks)-1].Value)

	few := xTicks([]string{"08:00:00", "08:00:01"})
	require.Len(t, few, 2)
	assert.Equal(t, "08:00:01", few[1].Label)
}
