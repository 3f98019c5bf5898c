package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestWriteJSONKeepsURLsVerbatim(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	view := map[string]string{"published_url": "https://bucket.example/a.zip?x=1&y=2"}
	if err := writeJSON(cmd, view); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	if !strings.Contains(out.String(), "x=1&y=2") {
		t.Fatalf("expected unescaped ampersand, got %s", out.String())
	}
	if !strings.HasSuffix(out.String(), "}\n") || !strings.Contains(out.String(), "\n  \"published_url\"") {
		t.Fatalf("expected indented output, got %q", out.String())
	}
}
