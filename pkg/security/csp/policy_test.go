package csp

import (
	"strings"
	"testing"
)

func TestNewCSPBuilder(t *testing.T) {
	builder := NewCSPBuilder()

	if builder.directives == nil {
		t.Error("directives map is nil")
	}
	if builder.reportOnly {
		t.Error("reportOnly should be false by default")
	}
	if got := builder.Build(); got != "" {
		t.Errorf("empty builder Build() = %q, want empty", got)
	}
}

func TestCSPBuilder_FixedOrder(t *testing.T) {
	// 設定順に関係なく出力順は固定
	policy := NewCSPBuilder().
		ReportURI("/csp-report").
		ObjectSrc("'none'").
		StyleSrc("'self'", "'unsafe-inline'").
		DefaultSrc("'self'").
		Build()

	expected := "default-src 'self'; style-src 'self' 'unsafe-inline'; object-src 'none'; report-uri /csp-report"
	if policy != expected {
		t.Errorf("Expected %q, got %q", expected, policy)
	}
}

func TestCSPBuilder_AllDirectives(t *testing.T) {
	policy := NewCSPBuilder().
		DefaultSrc("'self'").
		ScriptSrc("'self'").
		StyleSrc("'self'").
		ImgSrc("'self'", "data:").
		FontSrc("'self'", "data:").
		ConnectSrc("'self'").
		FrameAncestors("'none'").
		FormAction("'self'").
		BaseURI("'self'").
		ObjectSrc("'none'").
		ReportURI("/csp-report").
		Build()

	directives := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"img-src 'self' data:",
		"font-src 'self' data:",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"form-action 'self'",
		"base-uri 'self'",
		"object-src 'none'",
		"report-uri /csp-report",
	}
	for _, d := range directives {
		if !strings.Contains(policy, d) {
			t.Errorf("directive %q missing from %q", d, policy)
		}
	}
	if got := strings.Count(policy, "; "); got != len(directives)-1 {
		t.Errorf("expected %d separators, got %d", len(directives)-1, got)
	}
}

func TestCSPBuilder_EmptySourcesSkipped(t *testing.T) {
	policy := NewCSPBuilder().DefaultSrc("'self'").ScriptSrc().Build()

	if policy != "default-src 'self'" {
		t.Errorf("got %q", policy)
	}
}

func TestCSPBuilder_HeaderName(t *testing.T) {
	tests := []struct {
		name       string
		reportOnly bool
		want       string
	}{
		{name: "enforce", reportOnly: false, want: "Content-Security-Policy"},
		{name: "report only", reportOnly: true, want: "Content-Security-Policy-Report-Only"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCSPBuilder().ReportOnly(tt.reportOnly).HeaderName()
			if got != tt.want {
				t.Errorf("HeaderName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSitePolicy(t *testing.T) {
	policy := SitePolicy().Build()

	for _, want := range []string{"default-src 'self'", "script-src 'none'", "style-src 'self'", "frame-ancestors 'none'"} {
		if !strings.Contains(policy, want) {
			t.Errorf("SitePolicy missing %q: %s", want, policy)
		}
	}
	if strings.Contains(policy, "unsafe-inline") {
		t.Errorf("SitePolicy must not allow inline content: %s", policy)
	}
}

func TestStrictPolicy(t *testing.T) {
	policy := StrictPolicy().Build()

	if !strings.HasPrefix(policy, "default-src 'none'") {
		t.Errorf("StrictPolicy should start with default-src 'none', got %q", policy)
	}
}
