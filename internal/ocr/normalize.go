package ocr

import (
	"fmt"
	"math"

	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// Normalizer maps the vendor analyze payload into the stable OcrResult
// schema. Normalization is pure and deterministic: the same payload always
// yields an identical result.
type Normalizer struct {
	threshold float64
}

// NewNormalizer creates a Normalizer with the given overall-confidence
// threshold in [0, 1].
func NewNormalizer(threshold float64) *Normalizer {
	return &Normalizer{threshold: threshold}
}

// Normalize builds an OcrResult from a succeeded analyze payload. An overall
// confidence below the threshold is a data quality signal, not a failure:
// the result stays completed and is annotated low-confidence instead.
func (n *Normalizer) Normalize(res *di.AnalyzeResult) *models.OcrResult {
	regions := []models.TextRegion{}
	var confSum float64
	var confCount int

	for _, page := range res.Pages {
		for _, word := range page.Words {
			confSum += word.Confidence
			confCount++
		}
		for _, line := range page.Lines {
			regions = append(regions, models.TextRegion{
				Text:       line.Content,
				Page:       page.PageNumber,
				Polygon:    line.Polygon,
				Confidence: lineConfidence(line, page.Words),
			})
		}
	}

	overall := 0.0
	if confCount > 0 {
		overall = round4(confSum / float64(confCount))
	}

	stage := models.StageMetadata{Stage: models.StageCompleted}
	if overall < n.threshold {
		stage.LowConfidence = true
		stage.Detail = fmt.Sprintf("overall confidence %.2f below threshold %.2f",
			overall, n.threshold)
	}

	return &models.OcrResult{
		Content:    res.Content,
		Regions:    regions,
		Confidence: overall,
		Stage:      stage,
	}
}

// lineConfidence averages the confidence of the words whose spans the line
// covers. Lines carry no confidence of their own in the Read response.
func lineConfidence(line di.Line, words []di.Word) float64 {
	var sum float64
	var count int
	for _, word := range words {
		for _, span := range line.Spans {
			if span.Contains(word.Span) {
				sum += word.Confidence
				count++
				break
			}
		}
	}
	if count == 0 {
		return 0
	}
	return round4(sum / float64(count))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
