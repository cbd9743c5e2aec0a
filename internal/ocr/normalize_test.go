package ocr

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// samplePayload mimics a two-line Read response for a receipt photo.
func samplePayload() *di.AnalyzeResult {
	return &di.AnalyzeResult{
		APIVersion: "2024-11-30",
		ModelID:    "prebuilt-read",
		Content:    "LUZ Y FUERZA\nTOTAL $412.50",
		Pages: []di.Page{{
			PageNumber: 1,
			Unit:       "pixel",
			Words: []di.Word{
				{Content: "LUZ", Confidence: 0.98, Span: di.Span{Offset: 0, Length: 3}},
				{Content: "Y", Confidence: 0.95, Span: di.Span{Offset: 4, Length: 1}},
				{Content: "FUERZA", Confidence: 0.97, Span: di.Span{Offset: 6, Length: 6}},
				{Content: "TOTAL", Confidence: 0.90, Span: di.Span{Offset: 13, Length: 5}},
				{Content: "$412.50", Confidence: 0.80, Span: di.Span{Offset: 19, Length: 7}},
			},
			Lines: []di.Line{
				{
					Content: "LUZ Y FUERZA",
					Polygon: []float64{10, 10, 210, 10, 210, 40, 10, 40},
					Spans:   []di.Span{{Offset: 0, Length: 12}},
				},
				{
					Content: "TOTAL $412.50",
					Polygon: []float64{10, 60, 230, 60, 230, 90, 10, 90},
					Spans:   []di.Span{{Offset: 13, Length: 13}},
				},
			},
		}},
	}
}

func TestNormalize_Regions(t *testing.T) {
	n := NewNormalizer(0.75)
	result := n.Normalize(samplePayload())

	require.Len(t, result.Regions, 2)

	first := result.Regions[0]
	assert.Equal(t, "LUZ Y FUERZA", first.Text)
	assert.Equal(t, 1, first.Page)
	assert.Len(t, first.Polygon, 8)
	// mean of 0.98, 0.95, 0.97
	assert.InDelta(t, 0.9667, first.Confidence, 0.0001)

	second := result.Regions[1]
	assert.Equal(t, "TOTAL $412.50", second.Text)
	// mean of 0.90, 0.80
	assert.InDelta(t, 0.85, second.Confidence, 0.0001)

	assert.Equal(t, "LUZ Y FUERZA\nTOTAL $412.50", result.Content)
}

func TestNormalize_OverallConfidence(t *testing.T) {
	n := NewNormalizer(0.75)
	result := n.Normalize(samplePayload())

	// mean of all five word confidences
	assert.InDelta(t, 0.92, result.Confidence, 0.0001)
	assert.Equal(t, models.StageCompleted, result.Stage.Stage)
	assert.False(t, result.Stage.LowConfidence)
	assert.Empty(t, result.Stage.Detail)
}

func TestNormalize_LowConfidenceIsAnnotatedNotFailed(t *testing.T) {
	payload := samplePayload()
	for i := range payload.Pages[0].Words {
		payload.Pages[0].Words[i].Confidence = 0.4
	}

	n := NewNormalizer(0.75)
	result := n.Normalize(payload)

	assert.InDelta(t, 0.4, result.Confidence, 0.0001)
	assert.Equal(t, models.StageCompleted, result.Stage.Stage)
	assert.True(t, result.Stage.LowConfidence)
	assert.Contains(t, result.Stage.Detail, "0.40")
	assert.Contains(t, result.Stage.Detail, "0.75")
}

func TestNormalize_EmptyDocument(t *testing.T) {
	n := NewNormalizer(0.75)
	result := n.Normalize(&di.AnalyzeResult{Content: ""})

	assert.Empty(t, result.Regions)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, models.StageCompleted, result.Stage.Stage)
	assert.True(t, result.Stage.LowConfidence)
}

func TestNormalize_LineWithoutMatchingWords(t *testing.T) {
	payload := &di.AnalyzeResult{
		Content: "orphan",
		Pages: []di.Page{{
			PageNumber: 1,
			Lines: []di.Line{{
				Content: "orphan",
				Spans:   []di.Span{{Offset: 0, Length: 6}},
			}},
		}},
	}

	n := NewNormalizer(0.5)
	result := n.Normalize(payload)

	require.Len(t, result.Regions, 1)
	assert.Zero(t, result.Regions[0].Confidence)
}

func TestNormalize_Deterministic(t *testing.T) {
	n := NewNormalizer(0.75)

	a, err := json.Marshal(n.Normalize(samplePayload()))
	require.NoError(t, err)
	b, err := json.Marshal(n.Normalize(samplePayload()))
	require.NoError(t, err)

	assert.Equal(t, a, b, "normalizing the same payload twice must be byte-identical")
}
