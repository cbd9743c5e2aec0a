// Package speech proxies Azure Speech text-to-speech synthesis.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrSynthesis means the vendor refused or failed the synthesis request.
var ErrSynthesis = errors.New("speech synthesis failed")

const (
	outputFormat = "audio-24khz-48kbitrate-mono-mp3"
	userAgent    = "voyadecir-tts"
)

// Synthesizer is the interface for text-to-speech synthesis.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error)
}

// SynthesizeRequest holds the text to speak. Voice is optional; a language
// default is chosen when empty.
type SynthesizeRequest struct {
	Text  string
	Lang  string
	Voice string
}

// HTTPClient implements Synthesizer against the regional Azure Speech endpoint.
type HTTPClient struct {
	key    string
	region string
	client *http.Client

	// baseURL overrides the regional endpoint in tests.
	baseURL string
}

// NewHTTPClient creates a Speech client for the given region.
func NewHTTPClient(key, region string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		key:    key,
		region: region,
		client: &http.Client{Timeout: timeout},
	}
}

// NewHTTPClientWithBaseURL creates a client pointed at a fixed URL instead
// of the regional endpoint.
func NewHTTPClientWithBaseURL(key, baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		key:     key,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Synthesize posts SSML to the vendor and returns the MP3 audio bytes.
func (c *HTTPClient) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	u := c.baseURL
	if u == "" {
		u = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)
	}

	ssml := buildSSML(req.Text, req.Lang, req.Voice)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrSynthesis, err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSynthesis, resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio: %v", ErrSynthesis, err)
	}
	return audio, nil
}

// buildSSML wraps text in a minimal SSML document, defaulting the voice by
// language when none is given.
func buildSSML(text, lang, voice string) string {
	spanish := strings.HasPrefix(strings.ToLower(lang), "es")
	if voice == "" {
		if spanish {
			voice = "es-MX-DaliaNeural"
		} else {
			voice = "en-US-JennyNeural"
		}
	}
	langTag := "en-US"
	if spanish {
		langTag = "es-MX"
	}
	return fmt.Sprintf(
		"<speak version='1.0' xml:lang='%s'>\n  <voice name='%s'>%s</voice>\n</speak>",
		langTag, voice, escapeXML(text))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

var _ Synthesizer = (*HTTPClient)(nil)
