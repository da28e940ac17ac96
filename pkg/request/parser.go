// Package request provides regex-based parsing of free-text music requests.
// It is the degraded path used when no LLM is configured or the LLM fails:
// it handles the common "song by artist" and "artist's song" shapes and
// detects explicit version preferences.
package request

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sonosdj/internal/core"
)

var (
	playPrefixRegex = regexp.MustCompile(`^(play\s+|can\s+you\s+play\s+|i\s+want\s+to\s+hear\s+|i['’]?d\s+like\s+to\s+hear\s+|put\s+on\s+)`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	livePrefRegex     = regexp.MustCompile(`\blive\s+(version|recording)\b`)
	acousticPrefRegex = regexp.MustCompile(`\bacoustic\s+version\b`)
	studioPrefRegex   = regexp.MustCompile(`\bstudio\s+(version|recording)\b`)
	versionOfRegex    = regexp.MustCompile(`\b(a\s+)?(live|acoustic|studio)\s+(version|recording)\s+of\s+`)

	byRegex         = regexp.MustCompile(`^(.+?)\s+by\s+(.+)$`)
	possessiveRegex = regexp.MustCompile(`^(.+?)['’]s\s+(.+)$`)
)

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a best-effort title/artist/preference triple. It always
// returns a usable request: unrecognized text becomes a title-only request.
func (p *Parser) Parse(text string) *core.ParsedRequest {
	text = p.normalize(text)

	prefs := p.detectPreferences(text)

	text = playPrefixRegex.ReplaceAllString(text, "")
	text = versionOfRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if m := byRegex.FindStringSubmatch(text); m != nil {
		return &core.ParsedRequest{
			Title:       strings.TrimSpace(m[1]),
			Artist:      strings.TrimSpace(m[2]),
			Preferences: prefs,
		}
	}

	if m := possessiveRegex.FindStringSubmatch(text); m != nil {
		return &core.ParsedRequest{
			Title:       strings.TrimSpace(m[2]),
			Artist:      strings.TrimSpace(m[1]),
			Preferences: prefs,
		}
	}

	return &core.ParsedRequest{
		Title:       text,
		Preferences: prefs,
	}
}

func (p *Parser) normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(strings.TrimSpace(text))
	return whitespaceRegex.ReplaceAllString(text, " ")
}

func (p *Parser) detectPreferences(text string) core.Preferences {
	var prefs core.Preferences
	switch {
	case livePrefRegex.MatchString(text):
		prefs.PreferLive = true
	case acousticPrefRegex.MatchString(text):
		prefs.PreferAcoustic = true
	case studioPrefRegex.MatchString(text):
		prefs.PreferStudio = true
	}
	return prefs
}
