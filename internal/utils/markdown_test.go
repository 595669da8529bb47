package utils

import (
	"strings"
	"testing"
)

func TestRenderMessageSanitizes(t *testing.T) {
	out := RenderMessage("**hi** <script>alert(1)</script>")
	if !strings.Contains(out, "<strong>hi</strong>") {
		t.Errorf("Expected bold markup, got %s", out)
	}
	if strings.Contains(out, "<script>") {
		t.Errorf("Script tag should be stripped, got %s", out)
	}
}

func TestRenderMessageLinks(t *testing.T) {
	out := RenderMessage("[rsvp](https://example.com/e/1) or [local](/events/1)")
	if !strings.Contains(out, `target="_blank"`) {
		t.Errorf("External link should open in new tab, got %s", out)
	}
	if strings.Count(out, `target="_blank"`) != 1 {
		t.Errorf("Relative link should not open in new tab, got %s", out)
	}
}

func TestExcerpt(t *testing.T) {
	html := RenderMessage("Meeting moved to **Friday**\n\nBring boards.")
	if got := Excerpt(html, 100); got != "Meeting moved to Friday Bring boards." {
		t.Errorf("Unexpected excerpt %q", got)
	}
	if got := Excerpt(html, 7); got != "Meeting…" {
		t.Errorf("Unexpected truncated excerpt %q", got)
	}
}
