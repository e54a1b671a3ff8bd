// Package classify decides whether a cell's text already carries an English
// translation and normalizes the layout so English sits above Chinese.
//
// Detection is a heuristic, not a language detector: any first line with a
// single Latin letter counts as "already translated", so a Chinese line with
// a stray Latin abbreviation is a known false positive. Callers that need
// stricter detection should replace this package, not patch around it.
package classify

import (
	"regexp"
	"strings"
)

var (
	// Trailing parenthesized group whose content starts with a Latin letter,
	// e.g. "报告问题(Report issue)".
	trailingParenRe = regexp.MustCompile(`\([a-zA-Z].*\)$`)
	// Full bracket form used to rewrite "中文(English)" into two lines.
	bracketRe = regexp.MustCompile(`^(.*?)\s*\(([A-Za-z\s].*?)\)\s*$`)
	latinRe   = regexp.MustCompile(`[A-Za-z]`)
	cjkRe     = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)
)

// IsBilingual reports whether the text already contains both a Chinese and an
// English rendering, in either the bracket form "中文(English)" or the
// multi-line form where the first line holds the translation.
func IsBilingual(text string) bool {
	if trailingParenRe.MatchString(text) {
		return true
	}

	if strings.Contains(text, "\n") {
		parts := strings.Split(text, "\n")
		if len(parts) >= 2 {
			first := strings.TrimSpace(parts[0])
			if latinRe.MatchString(first) {
				return true
			}
		}
	}

	return false
}

// NormalizeOrder rewrites bilingual text so the English rendering comes
// first:
//
//   - "中文(English)" becomes "English\n中文".
//   - Two non-empty lines with Chinese first and English second are swapped.
//
// Any other shape (more than two lines, neither or both lines Chinese, or
// the order already correct) is returned unchanged.
func NormalizeOrder(text string) string {
	if m := bracketRe.FindStringSubmatch(text); m != nil {
		chinese := strings.TrimSpace(m[1])
		english := strings.TrimSpace(m[2])
		return english + "\n" + chinese
	}

	if strings.Contains(text, "\n") {
		var parts []string
		for _, p := range strings.Split(text, "\n") {
			p = strings.TrimSpace(p)
			if p != "" {
				parts = append(parts, p)
			}
		}

		if len(parts) == 2 {
			cjk1 := ContainsCJK(parts[0])
			cjk2 := ContainsCJK(parts[1])
			if cjk1 && !cjk2 {
				return parts[1] + "\n" + parts[0]
			}
		}
	}

	return text
}

// ContainsCJK reports whether the text contains at least one CJK unified
// ideograph (U+4E00..U+9FA5).
func ContainsCJK(text string) bool {
	return cjkRe.MatchString(text)
}
