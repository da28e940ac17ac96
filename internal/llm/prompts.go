package llm

import (
	"fmt"
	"strings"

	"sonosdj/internal/core"
)

// FormatParsingPrompt builds the strict-JSON request parsing prompt. The
// model must answer with the raw JSON object and nothing else.
func FormatParsingPrompt(request string) string {
	return fmt.Sprintf(`Parse the following natural language music request into structured components:

%q

Extract these components:
1. title: The song title (clean, lowercase, no annotations like "remaster" or "live")
2. artist: The artist name (clean, no possessives or "by" constructions)
3. album: The album name if mentioned (clean, no possessives, or null if not specified)
4. preferences: Dictionary with boolean flags for user preferences

Handle these common patterns:
- Play request indicators: "I'd like to hear", "play", "put on", "I want to hear", "can you play"
- Possessive forms: "[Artist]'s [Song]" means artist="[Artist]", title="[Song]"
- By constructions: "[Song] by [Artist]" means title="[Song]", artist="[Artist]"
- Album indicators: "from [Album]", "[Album] album", "off [Album]" means album="[Album]"
- Live preferences: "live version of", "concert version", "live recording" means prefer_live: true
- Acoustic preferences: "acoustic version", "unplugged version" means prefer_acoustic: true
- Studio preferences: "studio version", "original version", "studio recording" means prefer_studio: true

Special handling:
- Remove possessive "'s" from artist and album names
- Convert titles and albums to lowercase for consistency
- Don't include version type indicators in the title
- Set preference flags based on explicit version requests

Examples:
- "Neil Young's Harvest" -> {"title": "harvest", "artist": "neil young", "album": null, "preferences": {}}
- "play a live version of harvest by neil young" -> {"title": "harvest", "artist": "neil young", "album": null, "preferences": {"prefer_live": true}}
- "play the album dark side of the moon by pink floyd" -> {"title": null, "artist": "pink floyd", "album": "the dark side of the moon", "preferences": {}}

IMPORTANT: You MUST return ONLY a valid JSON object with exactly these keys: title, artist, album, preferences
- Do not include any explanatory text before or after the JSON
- Do not wrap the JSON in code blocks or markdown
- Any one of title, artist, or album can be null if not clearly specified but at least one must be non-null
- Return only the raw JSON, nothing else`, request)
}

// FormatTrackSelectionPrompt asks the model to pick the best matching track
// position. The model must answer with the bare position number.
func FormatTrackSelectionPrompt(target *core.ParsedRequest, candidates []core.Candidate) string {
	return fmt.Sprintf(`You are a music expert helping select the best track from search results.

TARGET SONG: %q by %s
PREFERENCES: %s

SEARCH RESULTS:
%s

ANALYSIS INSTRUCTIONS:
- THE MOST IMPORTANT CRITERION IS TO MATCH THE TITLE AS EXACTLY AS POSSIBLE
- Prefer the artist as exactly as possible (not covers or tributes by other artists)
- Apply user preferences for version type (live, acoustic, studio)
- For live preferences: look for "(Live)" in title or live venue/album names
- For acoustic preferences: look for "Acoustic", "Unplugged", or similar
- Prefer original albums over compilation albums when no preference specified
- Avoid covers, tributes, or instrumental versions unless specifically requested

Which position number (1-%d) best matches the request?

Return ONLY the position number, no explanation.`,
		target.Title, artistText(target.Artist), preferencesText(target.Preferences),
		resultsList(candidates), len(candidates))
}

// FormatAlbumSelectionPrompt is the album-mode variant of the selection
// prompt, matching on album name instead of track title.
func FormatAlbumSelectionPrompt(target *core.ParsedRequest, candidates []core.Candidate) string {
	return fmt.Sprintf(`You are a music expert helping select the best album from search results.

TARGET ALBUM: %q by %s
PREFERENCES: %s

SEARCH RESULTS:
%s

ANALYSIS INSTRUCTIONS:
- THE MOST IMPORTANT CRITERION IS TO MATCH THE ALBUM AS EXACTLY AS POSSIBLE
- Match the artist as exactly as possible (not covers or tributes by other artists)
- Apply user preferences for version type (live, acoustic, studio)
- For live preferences: look for "(Live)" in album or live venue/album names
- For acoustic preferences: look for "Acoustic", "Unplugged", or similar
- Prefer original albums over compilation albums when no preference specified
- Avoid covers, tributes, or instrumental versions unless specifically requested

Which position number (1-%d) best matches the request?

Return ONLY the position number, no explanation.`,
		target.Album, artistText(target.Artist), preferencesText(target.Preferences),
		albumResultsList(candidates), len(candidates))
}

// FormatAlbumLookupPrompt asks for the primary studio album containing a
// song, used to build a broader album-based search query.
func FormatAlbumLookupPrompt(title, artist string) string {
	artistPart := ""
	if artist != "" {
		artistPart = fmt.Sprintf(" by %s", artist)
	}

	return fmt.Sprintf(`Identify the primary album that contains the song %q%s.

Return ONLY the album name, nothing else. If the song appears on multiple albums, return the original studio album (not compilations, greatest hits, or live albums unless that's the only version).

Examples:
- "Harvest" by Neil Young -> Harvest
- "Comfortably Numb" by Pink Floyd -> The Wall
- "Fixing Her Hair" by Ani DiFranco -> Imperfectly

Song: %q%s
Album:`, title, artistPart, title, artistPart)
}

func artistText(artist string) string {
	if artist == "" {
		return "unknown artist"
	}
	return artist
}

func preferencesText(prefs core.Preferences) string {
	var parts []string
	if prefs.PreferLive {
		parts = append(parts, "live version")
	}
	if prefs.PreferAcoustic {
		parts = append(parts, "acoustic version")
	}
	if prefs.PreferStudio {
		parts = append(parts, "studio version")
	}
	if len(parts) == 0 {
		return "no specific version preference"
	}
	return strings.Join(parts, ", ")
}

func resultsList(candidates []core.Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s-%s-%s", c.Position, c.Title, c.Artist, c.Album))
	}
	return strings.Join(lines, "\n")
}

func albumResultsList(candidates []core.Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("%d. %s-%s", c.Position, c.Album, c.Artist))
	}
	return strings.Join(lines, "\n")
}
