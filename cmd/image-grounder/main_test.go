package main

import (
	"flag"
	"io"
	"reflect"
	"testing"
)

func TestParseArgsInterspersed(t *testing.T) {
	tests := []struct {
		args       []string
		positional []string
		output     string
	}{
		{[]string{"shot.png"}, []string{"shot.png"}, ""},
		{[]string{"-o", "out.png", "shot.png"}, []string{"shot.png"}, "out.png"},
		{[]string{"shot.png", "-o", "out.png"}, []string{"shot.png"}, "out.png"},
		{[]string{"shot.png", "--output", "out.png"}, []string{"shot.png"}, "out.png"},
		{[]string{"a.png", "b.png"}, []string{"a.png", "b.png"}, ""},
	}

	for _, tt := range tests {
		fs := flag.NewFlagSet("detect", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		var output string
		fs.StringVar(&output, "o", "", "")
		fs.StringVar(&output, "output", "", "")

		got, err := parseArgs(fs, tt.args)
		if err != nil {
			t.Fatalf("parseArgs(%v) failed: %v", tt.args, err)
		}
		if !reflect.DeepEqual(got, tt.positional) {
			t.Errorf("parseArgs(%v) positional = %v, want %v", tt.args, got, tt.positional)
		}
		if output != tt.output {
			t.Errorf("parseArgs(%v) output = %q, want %q", tt.args, output, tt.output)
		}
	}
}

func TestParseArgsUnknownFlag(t *testing.T) {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := parseArgs(fs, []string{"img.png", "-nope"}); err == nil {
		t.Error("Expected error for unknown flag")
	}
}
