package main

import (
	"sort"
	"strings"
	"testing"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	got := strings.Join(names, ",")
	for _, want := range []string{"check", "clean", "config", "languages", "library", "run", "runs", "show"} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q command in %s", want, got)
		}
	}
	for _, flag := range []string{"config", "log-level"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Fatalf("missing --%s flag", flag)
		}
	}
}

func TestHelpSkipsConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, _, err := runCLI(t, []string{"--help"}, "")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	requireContains(t, out, "anuvadika")
}
