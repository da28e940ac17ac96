package core

import (
	"context"
	"time"
)

type SearchMode int

const (
	// ModeTrack searches for individual tracks
	ModeTrack SearchMode = iota
	// ModeAlbum searches for whole albums, used when no title was parsed
	ModeAlbum
)

func (m SearchMode) String() string {
	if m == ModeAlbum {
		return "album"
	}
	return "track"
}

// Preferences carries version preferences extracted from a request.
type Preferences struct {
	PreferLive     bool
	PreferAcoustic bool
	PreferStudio   bool
}

func (p Preferences) Any() bool {
	return p.PreferLive || p.PreferAcoustic || p.PreferStudio
}

// ActiveCount returns the number of preference flags set.
func (p Preferences) ActiveCount() int {
	count := 0
	for _, flag := range []bool{p.PreferLive, p.PreferAcoustic, p.PreferStudio} {
		if flag {
			count++
		}
	}
	return count
}

// ParsedRequest is the structured form of a free-text music request.
type ParsedRequest struct {
	Title       string
	Artist      string
	Album       string
	Preferences Preferences
}

// Mode returns ModeAlbum when no title was extracted, mirroring the rule
// that a title-less request is presumed to be an album request.
func (r *ParsedRequest) Mode() SearchMode {
	if r.Title == "" {
		return ModeAlbum
	}
	return ModeTrack
}

// Candidate is one entry from the player's search output.
type Candidate struct {
	Position int
	Title    string
	Artist   string
	Album    string
	Raw      string
}

// Outcome describes the result of handling one request end to end.
type Outcome struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Track        *Candidate    `json:"track,omitempty"`
	Query        string        `json:"query,omitempty"`
	QueriesTried []string      `json:"queries_tried,omitempty"`
	TotalResults int           `json:"total_results,omitempty"`
	Position     int           `json:"position,omitempty"`
	Repeat       bool          `json:"repeat,omitempty"`
	Queue        string        `json:"queue,omitempty"`
	Elapsed      time.Duration `json:"elapsed_ns,omitempty"`
}

// SonosClient is the command surface of the external player CLI.
type SonosClient interface {
	SearchTracks(ctx context.Context, query string) ([]Candidate, error)
	SearchAlbums(ctx context.Context, query string) ([]Candidate, error)
	Select(ctx context.Context, position int) error
	ShowQueue(ctx context.Context) (string, error)
	NowPlaying(ctx context.Context) (string, error)
}

// LLMProvider is the completion-service oracle used for request parsing,
// result selection and album lookup.
type LLMProvider interface {
	ParseRequest(ctx context.Context, text string) (*ParsedRequest, error)
	SelectTrack(ctx context.Context, candidates []Candidate, target *ParsedRequest) (int, error)
	SelectAlbum(ctx context.Context, candidates []Candidate, target *ParsedRequest) (int, error)
	LookupAlbum(ctx context.Context, title, artist string) (string, error)
}

// HistoryStore tracks recently played track keys in process memory.
type HistoryStore interface {
	Has(key string) bool
	Add(key string)
	Size() int
	Clear()
}

// Journal is the append-only progress log for headless monitoring.
// Implementations must never fail the caller.
type Journal interface {
	Event(format string, args ...any)
}

// Metrics receives counters from the request pipeline. A no-op
// implementation is used outside serve mode.
type Metrics interface {
	RecordRequest(mode, status string)
	RecordSelection(method string)
	RecordLLMCall(op, status string)
	RecordProcessingTime(mode string, duration time.Duration)
}

type NopJournal struct{}

func (NopJournal) Event(string, ...any) {}

type NopMetrics struct{}

func (NopMetrics) RecordRequest(string, string)               {}
func (NopMetrics) RecordSelection(string)                     {}
func (NopMetrics) RecordLLMCall(string, string)               {}
func (NopMetrics) RecordProcessingTime(string, time.Duration) {}
