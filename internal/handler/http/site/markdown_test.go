package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSummary(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		contains    []string
		notContains []string
	}{
		{
			name:     "bullet list",
			in:       "- one\n- two",
			contains: []string{"<ul>", "<li>one</li>", "<li>two</li>"},
		},
		{
			name:     "plain paragraph",
			in:       "just text",
			contains: []string{"<p>just text</p>"},
		},
		{
			name:        "script removed",
			in:          "safe <script>alert(1)</script>",
			contains:    []string{"safe"},
			notContains: []string{"<script"},
		},
		{
			name:        "external link gets nofollow",
			in:          "[site](https://x.test/a)",
			contains:    []string{`href="https://x.test/a"`, "nofollow", `target="_blank"`},
			notContains: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RenderSummary(tt.in))
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestRenderSummary_Empty(t *testing.T) {
	assert.Equal(t, "", strings.TrimSpace(string(RenderSummary(""))))
}
