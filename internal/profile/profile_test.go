package profile

import (
	"strings"
	"testing"
)

func TestEnsure_LazyAndStablePerSession(t *testing.T) {
	dir := NewDirectory()

	first := dir.Ensure("s1")
	if first.ID != "s1" || first.Username == "" || first.Avatar == "" || first.Color == "" {
		t.Fatalf("incomplete profile: %+v", first)
	}
	again := dir.Ensure("s1")
	if again != first {
		t.Fatalf("repeat contact should return the existing profile")
	}
}

func TestGet_MissingProfile(t *testing.T) {
	dir := NewDirectory()
	if _, ok := dir.Get("ghost"); ok {
		t.Fatalf("unknown session should have no profile")
	}
}

func TestEvict_RemovesProfile(t *testing.T) {
	dir := NewDirectory()
	dir.Ensure("s1")
	dir.Evict("s1")
	if _, ok := dir.Get("s1"); ok {
		t.Fatalf("evicted profile still present")
	}
}

func TestGeneratedIdentityShape(t *testing.T) {
	dir := NewDirectory()
	p := dir.Ensure("s1")

	if !strings.HasPrefix(p.Color, "#") || len(p.Color) != 7 {
		t.Fatalf("color should be a hex triplet, got %q", p.Color)
	}
	if !strings.HasPrefix(p.Avatar, "https://api.dicebear.com/") {
		t.Fatalf("unexpected avatar url %q", p.Avatar)
	}
}
