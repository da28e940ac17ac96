package request

import (
	"testing"

	"sonosdj/internal/core"
)

func TestParseByPattern(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTitle  string
		wantArtist string
	}{
		{
			name:       "simple by pattern",
			text:       "stairway to heaven by led zeppelin",
			wantTitle:  "stairway to heaven",
			wantArtist: "led zeppelin",
		},
		{
			name:       "play prefix stripped",
			text:       "play bohemian rhapsody by queen",
			wantTitle:  "bohemian rhapsody",
			wantArtist: "queen",
		},
		{
			name:       "can you play prefix",
			text:       "can you play hotel california by eagles",
			wantTitle:  "hotel california",
			wantArtist: "eagles",
		},
		{
			name:       "i want to hear prefix",
			text:       "I want to hear Imagine by John Lennon",
			wantTitle:  "imagine",
			wantArtist: "john lennon",
		},
		{
			name:       "put on prefix",
			text:       "put on thunderstruck by ac/dc",
			wantTitle:  "thunderstruck",
			wantArtist: "ac/dc",
		},
		{
			name:       "extra whitespace collapsed",
			text:       "  play   yesterday   by   the beatles  ",
			wantTitle:  "yesterday",
			wantArtist: "the beatles",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Parse(tt.text)
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Artist != tt.wantArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.wantArtist)
			}
		})
	}
}

func TestParsePossessivePattern(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantTitle  string
		wantArtist string
	}{
		{
			name:       "ascii apostrophe",
			text:       "play queen's bohemian rhapsody",
			wantTitle:  "bohemian rhapsody",
			wantArtist: "queen",
		},
		{
			name:       "typographic apostrophe",
			text:       "adele’s someone like you",
			wantTitle:  "someone like you",
			wantArtist: "adele",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Parse(tt.text)
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Artist != tt.wantArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.wantArtist)
			}
		})
	}
}

func TestParsePreferences(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantPrefs core.Preferences
		wantTitle string
	}{
		{
			name:      "live version of",
			text:      "play a live version of thunderstruck by ac/dc",
			wantPrefs: core.Preferences{PreferLive: true},
			wantTitle: "thunderstruck",
		},
		{
			name:      "acoustic version of",
			text:      "acoustic version of layla by eric clapton",
			wantPrefs: core.Preferences{PreferAcoustic: true},
			wantTitle: "layla",
		},
		{
			name:      "studio recording of",
			text:      "play the studio recording of comfortably numb by pink floyd",
			wantPrefs: core.Preferences{PreferStudio: true},
		},
		{
			name:      "no preference",
			text:      "play stairway to heaven by led zeppelin",
			wantPrefs: core.Preferences{},
			wantTitle: "stairway to heaven",
		},
		{
			name:      "stayin alive does not trigger live",
			text:      "play stayin alive by bee gees",
			wantPrefs: core.Preferences{},
			wantTitle: "stayin alive",
		},
	}

	parser := NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parser.Parse(tt.text)
			if got.Preferences != tt.wantPrefs {
				t.Errorf("Preferences = %+v, want %+v", got.Preferences, tt.wantPrefs)
			}
			if tt.wantTitle != "" && got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
		})
	}
}

func TestParseTitleOnlyFallback(t *testing.T) {
	parser := NewParser()

	got := parser.Parse("play some jazz music")
	if got.Title != "some jazz music" {
		t.Errorf("Title = %q, want %q", got.Title, "some jazz music")
	}
	if got.Artist != "" {
		t.Errorf("Artist = %q, want empty", got.Artist)
	}
}

func TestParseAlwaysReturnsRequest(t *testing.T) {
	parser := NewParser()

	got := parser.Parse("")
	if got == nil {
		t.Fatal("Parse(\"\") returned nil")
	}
	if got.Title != "" || got.Artist != "" {
		t.Errorf("expected empty request, got %+v", got)
	}
}

func BenchmarkParse(b *testing.B) {
	parser := NewParser()
	for i := 0; i < b.N; i++ {
		parser.Parse("play a live version of thunderstruck by ac/dc")
	}
}
