package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleResult struct {
	Class string  `json:"class" yaml:"class"`
	Score float64 `json:"score" yaml:"score"`
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	err := Output(sampleResult{Class: "snap", Score: 0.91}, OutputOptions{
		Format: FormatJSON,
		Writer: &buf,
	})
	if err != nil {
		t.Fatal(err)
	}
	var got sampleResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Class != "snap" || got.Score != 0.91 {
		t.Errorf("round-trip = %+v", got)
	}
}

func TestOutputYAMLDefault(t *testing.T) {
	var buf bytes.Buffer
	err := Output(sampleResult{Class: "snap", Score: 0.91}, OutputOptions{
		Writer: &buf,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "class: snap") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func TestOutputRaw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("plain text", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain text" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestOutputRawStructFallsBackToYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(sampleResult{Class: "snap"}, OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "class: snap") {
		t.Errorf("raw struct output = %q", buf.String())
	}
}

func TestOutputToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	err := Output(sampleResult{Class: "snap"}, OutputOptions{
		Format: FormatJSON,
		File:   path,
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"class": "snap"`) {
		t.Errorf("file output = %q", data)
	}
}

func TestOutputUnknownFormat(t *testing.T) {
	if err := Output("x", OutputOptions{Format: "xml", Writer: &bytes.Buffer{}}); err == nil {
		t.Error("expected error for unsupported format")
	}
}
