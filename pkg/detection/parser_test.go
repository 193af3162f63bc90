package detection

import (
	"errors"
	"testing"

	"github.com/menta2k/image-grounding/pkg/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    types.NormalizedBox
		label   string
		wantErr error
	}{
		{
			name: "single detection",
			text: "```json\n[{\"box_2d\": [100,200,300,400]}]\n```",
			want: types.NormalizedBox{YMin: 100, XMin: 200, YMax: 300, XMax: 400},
		},
		{
			name:  "surrounded by prose and thoughts",
			text:  "Let me look at the toolbar.\nHere it is:\n```json\n[\n  {\"box_2d\": [12, 34, 56, 78], \"label\": \"chrome\"}\n]\n```\nDone.",
			want:  types.NormalizedBox{YMin: 12, XMin: 34, YMax: 56, XMax: 78},
			label: "chrome",
		},
		{
			name: "first fenced block wins",
			text: "```json\n[{\"box_2d\": [1,2,3,4]}]\n```\n```json\n[{\"box_2d\": [5,6,7,8]}]\n```",
			want: types.NormalizedBox{YMin: 1, XMin: 2, YMax: 3, XMax: 4},
		},
		{
			name: "only first object used",
			text: "```json\n[{\"box_2d\": [9,8,7,6]}, {\"box_2d\": [1,1,1,1]}]\n```",
			want: types.NormalizedBox{YMin: 9, XMin: 8, YMax: 7, XMax: 6},
		},
		{
			name:    "no fence",
			text:    "[{\"box_2d\": [100,200,300,400]}]",
			wantErr: ErrNoJSON,
		},
		{
			name:    "fence without json tag",
			text:    "```\n[{\"box_2d\": [100,200,300,400]}]\n```",
			wantErr: ErrNoJSON,
		},
		{
			name:    "invalid json",
			text:    "```json\n[{\"box_2d\": [100,200,}]\n```",
			wantErr: ErrMalformed,
		},
		{
			name:    "object instead of array",
			text:    "```json\n{\"box_2d\": [100,200,300,400]}\n```",
			wantErr: ErrMalformed,
		},
		{
			name:    "box with three values",
			text:    "```json\n[{\"box_2d\": [100,200,300]}]\n```",
			wantErr: ErrMalformed,
		},
		{
			name:    "missing box_2d",
			text:    "```json\n[{\"label\": \"chrome\"}]\n```",
			wantErr: ErrMissingField,
		},
		{
			name:    "empty array",
			text:    "```json\n[]\n```",
			wantErr: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Expected *ParseError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got.Box != tt.want {
				t.Errorf("Expected box %+v, got %+v", tt.want, got.Box)
			}
			if got.Label != tt.label {
				t.Errorf("Expected label %q, got %q", tt.label, got.Label)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	_, err := Parse("nothing here")
	if err == nil || err.Error() != "no JSON found in response" {
		t.Errorf("Unexpected error message: %v", err)
	}

	_, err = Parse("```json\n[oops]\n```")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected *ParseError, got %T", err)
	}
	if pe.Payload != "[oops]" {
		t.Errorf("Expected payload to be kept, got %q", pe.Payload)
	}
	if pe.Err == nil {
		t.Error("Expected underlying decode error")
	}
}
