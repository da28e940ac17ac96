package core

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sonos.Binary != "sonos" {
		t.Errorf("Sonos.Binary = %q, want sonos", cfg.Sonos.Binary)
	}
	if cfg.Sonos.CommandTimeout != 30*time.Second {
		t.Errorf("Sonos.CommandTimeout = %v, want 30s", cfg.Sonos.CommandTimeout)
	}
	if cfg.LLM.Provider != "none" {
		t.Errorf("LLM.Provider = %q, want none", cfg.LLM.Provider)
	}
	if cfg.Server.Port != DefaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, DefaultServerPort)
	}
	if cfg.App.MinMatchScore != DefaultMinMatchScore {
		t.Errorf("App.MinMatchScore = %v, want %v", cfg.App.MinMatchScore, DefaultMinMatchScore)
	}
	if cfg.App.LLMThreshold != DefaultLLMThreshold {
		t.Errorf("App.LLMThreshold = %v, want %v", cfg.App.LLMThreshold, DefaultLLMThreshold)
	}
	if cfg.App.HistorySize != DefaultHistorySize {
		t.Errorf("App.HistorySize = %d, want %d", cfg.App.HistorySize, DefaultHistorySize)
	}
	if cfg.App.FloodLimitPerMinute != DefaultFloodLimitPerMinute {
		t.Errorf("App.FloodLimitPerMinute = %d, want %d", cfg.App.FloodLimitPerMinute, DefaultFloodLimitPerMinute)
	}
	if cfg.App.JournalPath == "" {
		t.Error("App.JournalPath should default to a path")
	}
}

func TestParsedRequestMode(t *testing.T) {
	tests := []struct {
		name    string
		request ParsedRequest
		want    SearchMode
	}{
		{"title present", ParsedRequest{Title: "thunderstruck"}, ModeTrack},
		{"title and album", ParsedRequest{Title: "thunderstruck", Album: "the razors edge"}, ModeTrack},
		{"album only", ParsedRequest{Album: "abbey road"}, ModeAlbum},
		{"artist only", ParsedRequest{Artist: "the beatles"}, ModeAlbum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.request.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchModeString(t *testing.T) {
	if ModeTrack.String() != "track" {
		t.Errorf("ModeTrack.String() = %q", ModeTrack.String())
	}
	if ModeAlbum.String() != "album" {
		t.Errorf("ModeAlbum.String() = %q", ModeAlbum.String())
	}
}

func TestPreferencesActiveCount(t *testing.T) {
	tests := []struct {
		prefs Preferences
		want  int
	}{
		{Preferences{}, 0},
		{Preferences{PreferLive: true}, 1},
		{Preferences{PreferLive: true, PreferAcoustic: true}, 2},
		{Preferences{PreferLive: true, PreferAcoustic: true, PreferStudio: true}, 3},
	}

	for _, tt := range tests {
		if got := tt.prefs.ActiveCount(); got != tt.want {
			t.Errorf("ActiveCount(%+v) = %d, want %d", tt.prefs, got, tt.want)
		}
	}

	if (Preferences{}).Any() {
		t.Error("empty preferences reported Any")
	}
	if !(Preferences{PreferStudio: true}).Any() {
		t.Error("studio preference not reported by Any")
	}
}
