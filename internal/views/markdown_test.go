package views

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	got := string(RenderMarkdown("I built a **counter** app."))
	if !strings.Contains(got, "<strong>counter</strong>") {
		t.Errorf("bold not rendered: %q", got)
	}
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	got := string(RenderMarkdown("hello <script>alert(1)</script> world"))
	if strings.Contains(got, "<script>") {
		t.Errorf("script tag survived sanitization: %q", got)
	}
	if !strings.Contains(got, "hello") {
		t.Errorf("text content lost: %q", got)
	}
}

func TestRenderMarkdownEmpty(t *testing.T) {
	if got := RenderMarkdown(""); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
