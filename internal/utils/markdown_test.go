package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownStripsScripts(t *testing.T) {
	out := RenderMarkdown("hello <script>alert(1)</script> **world**")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "<strong>world</strong>")
}

func TestRenderMarkdownEnhancesImagesAndCode(t *testing.T) {
	out := RenderMarkdown("![cat](https://example.com/cat.png)\n\n```\nfmt.Println(1)\n```\n\n```go\nx := 1\n```")
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.Contains(t, out, `class="language-plaintext"`)
	assert.Contains(t, out, `class="language-go"`)
}

func TestRenderMarkdownExternalLinks(t *testing.T) {
	out := RenderMarkdown("[docs](https://go.dev)")
	assert.True(t, strings.Contains(out, `target="_blank"`))
	assert.Contains(t, out, "noreferrer")
}
