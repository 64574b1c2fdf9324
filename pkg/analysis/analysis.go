// Package analysis provides scene analysis of road frames through a remote
// vision-language model.
//
// The package abstracts the model call behind the Analyzer interface: one
// encoded frame in, one structured verdict out. Calls are single attempt
// with no internal retry, since every call corresponds to a fresh visual
// frame and recovery is simply the next scan cycle.
//
// Example usage:
//
//	client, _ := analysis.NewClient(
//	    analysis.WithAPIKey(os.Getenv("ROADWATCH_API_KEY")),
//	    analysis.WithModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	result, _ := client.Analyze(ctx, frame)
//	fmt.Println(result.SafetyLevel, result.Recommendation)
package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Analyzer turns one encoded frame into a structured scene verdict.
type Analyzer interface {
	// Analyze submits a single frame for analysis. The frame is an encoded
	// image (JPEG/PNG), optionally wrapped in a data URL.
	Analyze(ctx context.Context, frame []byte) (*Result, error)

	// Close releases any resources held by the analyzer.
	Close() error
}

// SafetyLevel is the model's categorical verdict on scene risk.
type SafetyLevel string

// Safety levels, as the response schema restricts them.
const (
	SafetySafe    SafetyLevel = "SAFE"
	SafetyCaution SafetyLevel = "CAUTION"
	SafetyDanger  SafetyLevel = "DANGER"
)

// Severity grades an individual hazard.
type Severity string

// Hazard severities, as the response schema restricts them.
const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// RoadSign is one sign reading from the model. All fields are free text.
type RoadSign struct {
	Type     string `json:"type"`
	Meaning  string `json:"meaning"`
	Location string `json:"location"`
}

// Hazard is one detected hazard.
type Hazard struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Result is the structured verdict for one frame. Results are immutable
// once constructed; a new scan supersedes the previous result wholesale.
type Result struct {
	Signs          []RoadSign  `json:"signs"`
	Hazards        []Hazard    `json:"hazards"`
	SafetyLevel    SafetyLevel `json:"safetyLevel"`
	Recommendation string      `json:"recommendation"`
	Timestamp      string      `json:"timestamp,omitempty"`
}

// Spoken returns the text a voice alert should read out for this result.
func (r *Result) Spoken() string {
	if r.Recommendation != "" {
		return r.Recommendation
	}
	switch r.SafetyLevel {
	case SafetyDanger:
		return "Danger ahead."
	case SafetyCaution:
		return "Proceed with caution."
	default:
		return "Road looks clear."
	}
}

// decodeFrame strips an embedded data URL prefix from the payload, returning
// the raw image bytes. Payloads without a prefix pass through unchanged.
func decodeFrame(frame []byte) ([]byte, error) {
	if !bytes.HasPrefix(frame, []byte("data:")) {
		return frame, nil
	}
	idx := bytes.IndexByte(frame, ',')
	if idx < 0 {
		return nil, ErrBadFrame
	}
	raw, err := base64.StdEncoding.DecodeString(string(frame[idx+1:]))
	if err != nil {
		return nil, ErrBadFrame
	}
	return raw, nil
}

// parseResult decodes the model's reply into a Result. Markdown code fences
// around the JSON body are tolerated; anything else that fails to decode is
// a ParseError. Enum values are passed through unvalidated, but a missing
// safety level means the reply did not follow the schema at all.
func parseResult(raw string) (*Result, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		body = strings.TrimSpace(body)
	}

	var res Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if res.SafetyLevel == "" {
		return nil, &ParseError{Raw: raw, Err: ErrMissingSafetyLevel}
	}
	if res.Signs == nil {
		res.Signs = []RoadSign{}
	}
	if res.Hazards == nil {
		res.Hazards = []Hazard{}
	}
	return &res, nil
}
