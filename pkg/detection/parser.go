package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/menta2k/image-grounding/pkg/types"
)

var (
	// ErrNoJSON means the response has no ```json fenced block
	ErrNoJSON = errors.New("no JSON found in response")
	// ErrMalformed means the fenced block is not a JSON array of detections
	ErrMalformed = errors.New("malformed JSON payload")
	// ErrMissingField means the first detection has no box_2d
	ErrMissingField = errors.New("missing box_2d field")
)

// ParseError reports why a model response could not be turned into a detection
type ParseError struct {
	Kind    error  // one of ErrNoJSON, ErrMalformed, ErrMissingField
	Payload string // the fenced JSON body, if one was found
	Err     error  // underlying decode error, if any
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is / errors.As
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

var jsonFence = regexp.MustCompile("(?s)```json\n(.*?)\n```")

type rawDetection struct {
	Label string               `json:"label"`
	Box   *types.NormalizedBox `json:"box_2d"`
}

// Parse extracts the first detection from a full model response. The first
// ```json fenced block must hold an array of objects; the first object's box_2d
// is read as [ymin, xmin, ymax, xmax].
func Parse(text string) (types.Detection, error) {
	m := jsonFence.FindStringSubmatch(text)
	if m == nil {
		return types.Detection{}, &ParseError{Kind: ErrNoJSON}
	}
	payload := m[1]

	var items []rawDetection
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return types.Detection{}, &ParseError{Kind: ErrMalformed, Payload: payload, Err: err}
	}
	if len(items) == 0 || items[0].Box == nil {
		return types.Detection{}, &ParseError{Kind: ErrMissingField, Payload: payload}
	}

	return types.Detection{Label: items[0].Label, Box: *items[0].Box}, nil
}
