package siteadapter

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SafeInt extracts an integer from a selection's text by stripping every
// non-digit character, then range-checks it against [min, max]. It
// returns 0 rather than raising when the field is missing or malformed,
// per the defensive extraction requirement.
func SafeInt(sel *goquery.Selection, min, max int64) int64 {
	if sel == nil || sel.Length() == 0 {
		return 0
	}
	return ParseSafeInt(sel.Text(), min, max)
}

// ParseSafeInt applies the same stripping/range-check logic directly to a
// string, for callers that already have extracted text.
func ParseSafeInt(raw string, min, max int64) int64 {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0
	}
	if n < min || n > max {
		return 0
	}
	return n
}

// SafeString extracts a selection's trimmed text, truncated to maxLen.
func SafeString(sel *goquery.Selection, maxLen int) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	s := strings.TrimSpace(sel.Text())
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}

// SafeAttr extracts a trimmed attribute value, or "" if absent.
func SafeAttr(sel *goquery.Selection, attr string, maxLen int) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	v, ok := sel.Attr(attr)
	if !ok {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxLen {
		v = v[:maxLen]
	}
	return v
}

// SafeURL validates that raw is an absolute http(s) URL, returning "" if
// not — extracted links are never propagated with another scheme.
func SafeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return ""
}

// SafeList maps a goquery selection's matched elements through fn,
// skipping any element fn rejects (returns false for).
func SafeList(sel *goquery.Selection, fn func(i int, s *goquery.Selection) (string, bool)) []string {
	var out []string
	sel.Each(func(i int, s *goquery.Selection) {
		if v, ok := fn(i, s); ok {
			out = append(out, v)
		}
	})
	return out
}
