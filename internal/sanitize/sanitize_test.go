package sanitize_test

import (
	"strings"
	"testing"

	"github.com/okarpov/linguard/internal/sanitize"
)

func TestClean_PlainTextUnchanged(t *testing.T) {
	text := "Bonjour, comment allez-vous?"
	if got := sanitize.Clean(text, 1000); got != text {
		t.Errorf("expected %q, got %q", text, got)
	}
}

func TestClean_StripsHTMLTags(t *testing.T) {
	got := sanitize.Clean("<p>Hello <b>world</b></p>", 1000)
	if got != "Hello world" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestClean_StripsScriptBlocks(t *testing.T) {
	got := sanitize.Clean("before <script>alert('x')</script> after", 1000)
	if strings.Contains(got, "alert") {
		t.Errorf("script content should be removed, got %q", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("surrounding text should survive, got %q", got)
	}
}

func TestClean_ScriptBlockCaseInsensitive(t *testing.T) {
	got := sanitize.Clean(`<SCRIPT type="text/javascript">evil()</SCRIPT>ok`, 1000)
	if got != "ok" {
		t.Errorf("expected %q, got %q", "ok", got)
	}
}

func TestClean_RemovesNullBytes(t *testing.T) {
	got := sanitize.Clean("a\x00b\x00c", 1000)
	if got != "abc" {
		t.Errorf("expected null bytes removed, got %q", got)
	}
}

func TestClean_TruncatesToMaxLen(t *testing.T) {
	text := strings.Repeat("x", 100)
	got := sanitize.Clean(text, 10)
	if len(got) != 10 {
		t.Errorf("expected 10 chars, got %d", len(got))
	}
}

func TestClean_TruncationCountsRunes(t *testing.T) {
	text := strings.Repeat("é", 20)
	got := sanitize.Clean(text, 5)
	if n := len([]rune(got)); n != 5 {
		t.Errorf("expected 5 runes, got %d", n)
	}
}

func TestClean_NoLimit(t *testing.T) {
	text := strings.Repeat("x", 100)
	if got := sanitize.Clean(text, 0); got != text {
		t.Errorf("maxLen 0 should disable truncation")
	}
}

func TestClean_TrimsWhitespace(t *testing.T) {
	if got := sanitize.Clean("  hello  ", 1000); got != "hello" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}
