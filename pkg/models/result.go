package models

// Pipeline stages reported in StageMetadata. The backend depends on the
// stage field being one of exactly these values.
const (
	StageSubmitted   = "submitted"
	StageRecognizing = "recognizing"
	StageCompleted   = "completed"
	StageFailed      = "failed"
)

// StageMetadata describes which processing stage produced a result or
// failure. A failed stage always carries a specific cause in Detail; the
// gateway never reports an opaque failure.
type StageMetadata struct {
	Stage         string `json:"stage"`
	Detail        string `json:"detail,omitempty"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

// TextRegion is one recognized line of text with its location and a
// confidence score in [0, 1].
type TextRegion struct {
	Text       string    `json:"text"`
	Page       int       `json:"page"`
	Polygon    []float64 `json:"polygon,omitempty"`
	Confidence float64   `json:"confidence"`
}

// OcrResult is the normalized output of one OCR operation. Regions are
// ordered as the vendor returned them (reading order per page). The struct
// is never mutated after the normalizer builds it.
type OcrResult struct {
	Content    string        `json:"content"`
	Regions    []TextRegion  `json:"regions"`
	Confidence float64       `json:"confidence"`
	Stage      StageMetadata `json:"stage"`
}
