package di

import "time"

// analyzeRequest is the submission body. The vendor accepts exactly one of
// urlSource or base64Source.
type analyzeRequest struct {
	URLSource    string `json:"urlSource,omitempty"`
	Base64Source string `json:"base64Source,omitempty"`
}

// operationResponse is the root response from the analyzeResults endpoint.
type operationResponse struct {
	Status              string         `json:"status"`
	CreatedDateTime     time.Time      `json:"createdDateTime"`
	LastUpdatedDateTime time.Time      `json:"lastUpdatedDateTime"`
	AnalyzeResult       *AnalyzeResult `json:"analyzeResult,omitempty"`
	Error               *vendorError   `json:"error,omitempty"`
}

type vendorError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AnalyzeResult is the analyze payload of a succeeded "Read" operation.
type AnalyzeResult struct {
	APIVersion      string `json:"apiVersion"`
	ModelID         string `json:"modelId"`
	StringIndexType string `json:"stringIndexType"`
	Content         string `json:"content"`
	Pages           []Page `json:"pages"`
}

// Page is a single page of the analyzed document.
type Page struct {
	PageNumber int     `json:"pageNumber"`
	Angle      float64 `json:"angle"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Unit       string  `json:"unit"`
	Words      []Word  `json:"words"`
	Lines      []Line  `json:"lines"`
	Spans      []Span  `json:"spans"`
}

// Word is a single recognized word with its confidence.
type Word struct {
	Content    string    `json:"content"`
	Polygon    []float64 `json:"polygon"`
	Confidence float64   `json:"confidence"`
	Span       Span      `json:"span"`
}

// Line is a recognized line of text in reading order. Lines carry no
// confidence of their own; it is derived from the words their spans cover.
type Line struct {
	Content string    `json:"content"`
	Polygon []float64 `json:"polygon"`
	Spans   []Span    `json:"spans"`
}

// Span locates content within the full-document content string.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Contains reports whether the other span falls entirely inside this one.
func (s Span) Contains(other Span) bool {
	return other.Offset >= s.Offset && other.Offset+other.Length <= s.Offset+s.Length
}
