package core

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"sonosdj/pkg/fuzzy"
)

const (
	versionBonus        = 0.3
	versionPenalty      = -0.1
	studioBonus         = 0.2
	defaultStudioBonus  = 0.1
	defaultLivePenalty  = -0.05
	defaultAcousticBias = 0.05
	strongMatchScore    = 0.7
	artistPartialScore  = 0.8
)

// ambiguousAlbumMarkers flag album names whose meaning a similarity score
// cannot judge (compilations, reissues), pushing selection to the LLM.
var ambiguousAlbumMarkers = []string{
	"greatest hits", "best of", "collection", "anthology",
	"deluxe", "remaster", "anniversary", "special edition",
}

type scoredMatch struct {
	Candidate Candidate
	Score     float64
}

// Selector picks the best candidate for a parsed request. It scores every
// candidate heuristically first, then consults the LLM when the heuristic
// outcome is ambiguous, falling back to the heuristic winner when the LLM
// declines or answers out of range.
type Selector struct {
	llm          LLMProvider
	norm         *fuzzy.Normalizer
	minScore     float64
	llmThreshold float64
	logger       *zap.Logger
}

func NewSelector(llm LLMProvider, minScore, llmThreshold float64, logger *zap.Logger) *Selector {
	return &Selector{
		llm:          llm,
		norm:         fuzzy.NewNormalizer(),
		minScore:     minScore,
		llmThreshold: llmThreshold,
		logger:       logger,
	}
}

// Select returns the chosen candidate position and the selection method used
// ("llm" or "heuristic"). ok is false when no candidate clears the minimum
// viable score.
func (s *Selector) Select(ctx context.Context, candidates []Candidate, target *ParsedRequest) (position int, method string, ok bool) {
	if len(candidates) == 0 {
		return 0, "", false
	}

	matches := s.scoreAll(candidates, target)
	if len(matches) == 0 {
		return 0, "", false
	}

	if s.llm != nil && s.shouldUseLLM(matches, target.Preferences) {
		pos, err := s.llmSelect(ctx, candidates, target)
		if err == nil && s.validPosition(pos, candidates) {
			return pos, "llm", true
		}
		if err != nil {
			s.logger.Warn("LLM selection failed, using heuristic winner", zap.Error(err))
		} else {
			s.logger.Warn("LLM selected invalid position, using heuristic winner", zap.Int("position", pos))
		}
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.Score > best.Score {
			best = m
		}
	}

	s.logger.Debug("Heuristic selection",
		zap.Int("position", best.Candidate.Position),
		zap.Float64("score", best.Score))

	return best.Candidate.Position, "heuristic", true
}

func (s *Selector) llmSelect(ctx context.Context, candidates []Candidate, target *ParsedRequest) (int, error) {
	if target.Mode() == ModeAlbum {
		return s.llm.SelectAlbum(ctx, candidates, target)
	}
	return s.llm.SelectTrack(ctx, candidates, target)
}

func (s *Selector) scoreAll(candidates []Candidate, target *ParsedRequest) []scoredMatch {
	var matches []scoredMatch

	targetArtist := s.norm.CleanForMatch(target.Artist)

	for _, candidate := range candidates {
		var score float64
		if target.Mode() == ModeAlbum {
			score = s.scoreAlbum(candidate, s.norm.CleanForMatch(target.Album), targetArtist, target.Preferences)
		} else {
			score = s.scoreTrack(candidate, s.norm.CleanForMatch(target.Title), targetArtist, target.Preferences)
		}

		if score > s.minScore {
			matches = append(matches, scoredMatch{Candidate: candidate, Score: score})
		}
	}

	return matches
}

func (s *Selector) scoreTrack(candidate Candidate, targetTitle, targetArtist string, prefs Preferences) float64 {
	titleScore := s.nameScore(s.norm.CleanForMatch(candidate.Title), targetTitle)
	versionScore := s.versionScore(candidate, prefs)

	if targetArtist != "" {
		artistScore := s.artistScore(s.norm.CleanForMatch(candidate.Artist), targetArtist)
		return clamp01(titleScore*0.6 + artistScore*0.3 + versionScore + 0.1)
	}

	return clamp01(titleScore*0.8 + versionScore + 0.2)
}

func (s *Selector) scoreAlbum(candidate Candidate, targetAlbum, targetArtist string, prefs Preferences) float64 {
	albumScore := s.nameScore(s.norm.CleanForMatch(candidate.Album), targetAlbum)
	versionScore := s.versionScore(candidate, prefs)

	if targetArtist != "" {
		artistScore := s.artistScore(s.norm.CleanForMatch(candidate.Artist), targetArtist)
		return clamp01(albumScore*0.6 + artistScore*0.3 + versionScore + 0.1)
	}

	return clamp01(albumScore*0.8 + versionScore + 0.2)
}

func (s *Selector) nameScore(candidate, target string) float64 {
	if candidate == target {
		return 1.0
	}

	// Exact match modulo punctuation and spacing still counts as exact.
	if s.norm.ExactKey(candidate) == s.norm.ExactKey(target) {
		return 1.0
	}

	return s.norm.Similarity(candidate, target)
}

func (s *Selector) artistScore(candidate, target string) float64 {
	if candidate == target {
		return 1.0
	}

	score := s.norm.Similarity(candidate, target)
	if strings.Contains(candidate, target) || strings.Contains(target, candidate) {
		if score < artistPartialScore {
			score = artistPartialScore
		}
	}
	return score
}

func (s *Selector) versionScore(candidate Candidate, prefs Preferences) float64 {
	isLive := s.norm.IsLiveVersion(candidate.Title, candidate.Album)
	isAcoustic := s.norm.IsAcousticVersion(candidate.Title, candidate.Album)
	isStudio := !isLive && !isAcoustic

	switch {
	case prefs.PreferLive:
		if isLive {
			return versionBonus
		}
		return versionPenalty
	case prefs.PreferAcoustic:
		if isAcoustic {
			return versionBonus
		}
		return versionPenalty
	case prefs.PreferStudio:
		if isStudio {
			return studioBonus
		}
		return versionPenalty
	}

	// No stated preference: lean towards studio versions.
	if isStudio {
		return defaultStudioBonus
	}
	if isLive {
		return defaultLivePenalty
	}
	return defaultAcousticBias
}

// shouldUseLLM decides whether the choice needs contextual judgment: several
// strong matches, no clear heuristic winner, stacked preferences, or album
// names that need interpretation.
func (s *Selector) shouldUseLLM(matches []scoredMatch, prefs Preferences) bool {
	topScore := 0.0
	strongMatches := 0
	for _, m := range matches {
		if m.Score > topScore {
			topScore = m.Score
		}
		if m.Score > strongMatchScore {
			strongMatches++
		}
	}

	return strongMatches >= 3 ||
		topScore < s.llmThreshold ||
		prefs.ActiveCount() >= 2 ||
		s.hasAmbiguousAlbums(matches)
}

func (s *Selector) hasAmbiguousAlbums(matches []scoredMatch) bool {
	for _, m := range matches {
		album := strings.ToLower(m.Candidate.Album)
		for _, marker := range ambiguousAlbumMarkers {
			if strings.Contains(album, marker) {
				return true
			}
		}
	}
	return false
}

func (s *Selector) validPosition(position int, candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Position == position {
			return true
		}
	}
	return false
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
