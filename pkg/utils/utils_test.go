package utils

import (
	"slices"
	"strings"
	"testing"
)

func TestTokenizeWords(t *testing.T) {
	in := "Bruce Wayne, Gotham's own."
	got := TokenizeWords(in)
	want := []string{"Bruce", " ", "Wayne", ",", " ", "Gotham's", " ", "own", "."}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Join(got, "") != in {
		t.Errorf("tokens do not rejoin to input")
	}
}

func TestSanitizeFilename(t *testing.T) {
	got := SanitizeFilename("https://cdn.example/md/70-batman.jpg")
	if strings.ContainsAny(got, `/\:`) {
		t.Errorf("unsafe filename %q", got)
	}
}

func TestCleanJSON(t *testing.T) {
	if got := CleanJSON("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestLimitStr(t *testing.T) {
	if got := LimitStr("Batman", 3); got != "Bat..." {
		t.Errorf("got %q", got)
	}
	if got := LimitStr("Bat", 3); got != "Bat" {
		t.Errorf("got %q", got)
	}
}

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[map[string]int]()
	m.Store("batman", 70)
	if v, ok := m.Load("batman"); !ok || v != 70 {
		t.Errorf("got %d, %v", v, ok)
	}
	if _, ok := m.Load("robin"); ok {
		t.Errorf("expected miss")
	}
}
