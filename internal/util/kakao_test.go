package util

import (
	"strings"
	"testing"
)

func TestApplyKakaoSeeMorePadding(t *testing.T) {
	if got := ApplyKakaoSeeMorePadding("  ", "x"); got != "  " {
		t.Fatalf("blank text should pass through, got %q", got)
	}
	got := ApplyKakaoSeeMorePadding("body", " 안내 ")
	want := "안내" + strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding) + "\nbody"
	if got != want {
		t.Fatalf("padding mismatch")
	}
	if got := ApplyKakaoSeeMorePadding("\nbody", ""); strings.Contains(got, "\n\n") {
		t.Fatalf("should not double the newline: %q", got)
	}
}

func TestStripLeadingHeader(t *testing.T) {
	cases := map[string]string{
		"H\n\nbody":   "body",
		"H\r\nbody":   "body",
		"Hbody":       "body",
		"other\nbody": "other\nbody",
	}
	for in, want := range cases {
		if got := StripLeadingHeader(in, "H"); got != want {
			t.Fatalf("StripLeadingHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestApplySeeMoreWithHeader(t *testing.T) {
	got := ApplySeeMoreWithHeader("H\n\nbody", "H", "fb", " more")
	if !strings.HasPrefix(got, "H more"+KakaoZeroWidthSpace) || !strings.HasSuffix(got, "\nbody") {
		t.Fatalf("got %q", got)
	}
	got = ApplySeeMoreWithHeader("body", "", "fb", " more")
	if !strings.HasPrefix(got, "fb"+KakaoZeroWidthSpace) {
		t.Fatalf("fallback not used: %q", got)
	}
}
