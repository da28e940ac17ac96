// Package fuzzy provides text normalization and match heuristics for
// comparing search results against a requested track or album.
package fuzzy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	remasterRegex     = regexp.MustCompile(`(?i)\s*\(\d{4}\s*remaster(ed)?\)`)
	liveParenRegex    = regexp.MustCompile(`(?i)\s*\(live[^)]*\)`)
	explicitTagRegex  = regexp.MustCompile(`(?i)\s*\[explicit\]`)
	trailingLiveRegex = regexp.MustCompile(`(?i)\s*-\s*live\s*$`)
	punctRegex        = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)

	livePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\blive\b`),
		regexp.MustCompile(`(?i)\bconcert\b`),
		regexp.MustCompile(`(?i)live\s+from`),
		regexp.MustCompile(`(?i)live\s+at`),
		regexp.MustCompile(`(?i)artists\s+den`),
		regexp.MustCompile(`(?i)live\s+recording`),
		regexp.MustCompile(`(?i)concert\s+version`),
	}

	acousticPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bacoustic\b`),
		regexp.MustCompile(`(?i)\bunplugged\b`),
		regexp.MustCompile(`(?i)acoustic\s+version`),
		regexp.MustCompile(`(?i)stripped`),
		regexp.MustCompile(`(?i)solo\s+acoustic`),
	}
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// CleanForMatch strips catalog annotations (remaster years, live markers,
// explicit tags) and normalizes case and whitespace so that variants of the
// same track compare equal.
func (n *Normalizer) CleanForMatch(text string) string {
	if text == "" {
		return ""
	}

	text = remasterRegex.ReplaceAllString(text, "")
	text = liveParenRegex.ReplaceAllString(text, "")
	text = explicitTagRegex.ReplaceAllString(text, "")
	text = trailingLiveRegex.ReplaceAllString(text, "")

	text = whitespaceRegex.ReplaceAllString(strings.ToLower(text), " ")
	return strings.TrimSpace(text)
}

// ExactKey reduces text to letters, digits and single spaces. Two strings
// with the same key differ only in punctuation, accents or spacing.
func (n *Normalizer) ExactKey(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFKD.String(text)

	var result strings.Builder
	for _, r := range text {
		if !unicode.IsMark(r) {
			result.WriteRune(r)
		}
	}
	text = result.String()

	text = punctRegex.ReplaceAllString(strings.ToLower(text), "")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TrackKey builds a stable identity for a played track, used for
// recently-played tracking.
func (n *Normalizer) TrackKey(title, artist string) string {
	return n.ExactKey(title) + "|" + n.ExactKey(artist)
}

func (n *Normalizer) Similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(s1, s2)) / float64(max(len(s1), len(s2)))
}

// IsLiveVersion reports whether title or album context marks a live recording.
func (n *Normalizer) IsLiveVersion(title, album string) bool {
	text := title + " " + album
	for _, pattern := range livePatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// IsAcousticVersion reports whether title or album context marks an acoustic
// recording.
func (n *Normalizer) IsAcousticVersion(title, album string) bool {
	text := title + " " + album
	for _, pattern := range acousticPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

func longestCommonSubsequence(s1, s2 string) int {
	m, n := len(s1), len(s2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if s1[i-1] == s2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[m][n]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
