package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sonosdj/pkg/fuzzy"
)

// FallbackParser is the regex request parser used when no LLM is configured
// or the LLM parse fails.
type FallbackParser interface {
	Parse(text string) *ParsedRequest
}

// Agent handles one natural-language music request end to end: parse,
// generate query variants, search, select, play.
type Agent struct {
	config   *Config
	sonos    SonosClient
	llm      LLMProvider
	fallback FallbackParser
	selector *Selector
	builder  *QueryBuilder
	history  HistoryStore
	journal  Journal
	metrics  Metrics
	norm     *fuzzy.Normalizer
	logger   *zap.Logger
}

func NewAgent(
	config *Config,
	sonos SonosClient,
	llm LLMProvider,
	fallback FallbackParser,
	history HistoryStore,
	journal Journal,
	metrics Metrics,
	logger *zap.Logger,
) *Agent {
	if journal == nil {
		journal = NopJournal{}
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &Agent{
		config:   config,
		sonos:    sonos,
		llm:      llm,
		fallback: fallback,
		selector: NewSelector(llm, config.App.MinMatchScore, config.App.LLMThreshold, logger.Named("selector")),
		builder:  NewQueryBuilder(llm, logger.Named("queries")),
		history:  history,
		journal:  journal,
		metrics:  metrics,
		norm:     fuzzy.NewNormalizer(),
		logger:   logger,
	}
}

// HandleRequest processes a free-text request and returns the outcome. It
// never returns an error: failures are reported in the outcome message so
// callers can relay them verbatim.
func (a *Agent) HandleRequest(ctx context.Context, text string) *Outcome {
	start := time.Now()
	a.journal.Event("handling request: %q", text)

	target := a.parse(ctx, text)
	mode := target.Mode()

	a.journal.Event("parsed: title=%q artist=%q album=%q live=%v acoustic=%v studio=%v",
		target.Title, target.Artist, target.Album,
		target.Preferences.PreferLive, target.Preferences.PreferAcoustic, target.Preferences.PreferStudio)

	outcome := a.searchMatchPlay(ctx, target)
	outcome.Elapsed = time.Since(start)

	status := "no_match"
	if outcome.Success {
		status = "played"
	} else if outcome.Track != nil {
		status = "play_failed"
	}
	a.metrics.RecordRequest(mode.String(), status)
	a.metrics.RecordProcessingTime(mode.String(), outcome.Elapsed)

	a.journal.Event("completed in %.2fs: %s", outcome.Elapsed.Seconds(), outcome.Message)
	return outcome
}

func (a *Agent) parse(ctx context.Context, text string) *ParsedRequest {
	if a.llm == nil {
		a.journal.Event("no LLM configured, using fallback parsing")
		return a.fallback.Parse(text)
	}

	parsed, err := a.llm.ParseRequest(ctx, text)
	if err != nil {
		a.metrics.RecordLLMCall("parse", "error")
		a.logger.Warn("LLM parse failed, falling back to regex parsing", zap.Error(err))
		a.journal.Event("LLM parse failed (%v), using fallback parsing", err)
		return a.fallback.Parse(text)
	}

	a.metrics.RecordLLMCall("parse", "ok")
	return parsed
}

func (a *Agent) searchMatchPlay(ctx context.Context, target *ParsedRequest) *Outcome {
	queries := a.builder.Build(ctx, target)
	a.journal.Event("generated %d search queries: %v", len(queries), queries)

	for _, query := range queries {
		a.journal.Event("trying search: %q", query)

		candidates, err := a.search(ctx, target.Mode(), query)
		if err != nil {
			a.journal.Event("search failed: %v", err)
			continue
		}
		if len(candidates) == 0 {
			a.journal.Event("no results")
			continue
		}

		a.journal.Event("found %d results", len(candidates))

		position, method, ok := a.selector.Select(ctx, candidates, target)
		if !ok {
			a.journal.Event("no viable match among results")
			continue
		}

		a.metrics.RecordSelection(method)
		a.journal.Event("selected position %d (%s)", position, method)

		return a.play(ctx, target, candidates, position, query, queries)
	}

	return &Outcome{
		Success: false,
		Message: fmt.Sprintf("Could not find a good match for %q by %s. Try being more specific or using different search terms.",
			a.describeTarget(target), orUnknown(target.Artist)),
		QueriesTried: queries,
	}
}

func (a *Agent) search(ctx context.Context, mode SearchMode, query string) ([]Candidate, error) {
	if mode == ModeAlbum {
		return a.sonos.SearchAlbums(ctx, query)
	}
	return a.sonos.SearchTracks(ctx, query)
}

func (a *Agent) play(ctx context.Context, target *ParsedRequest, candidates []Candidate, position int, query string, queries []string) *Outcome {
	var selected *Candidate
	for i := range candidates {
		if candidates[i].Position == position {
			selected = &candidates[i]
			break
		}
	}

	a.journal.Event("playing: %s by %s", selected.Title, selected.Artist)

	if err := a.sonos.Select(ctx, position); err != nil {
		a.logger.Error("Playback command failed",
			zap.Int("position", position),
			zap.Error(err))
		return &Outcome{
			Success:      false,
			Message:      fmt.Sprintf("Found the track but failed to play it: %v", err),
			Track:        selected,
			Query:        query,
			QueriesTried: queries,
		}
	}

	outcome := &Outcome{
		Success:      true,
		Track:        selected,
		Query:        query,
		QueriesTried: queries,
		TotalResults: len(candidates),
		Position:     position,
	}

	if target.Mode() == ModeAlbum {
		outcome.Message = fmt.Sprintf("Now playing album: %s by %s", selected.Album, selected.Artist)
	} else {
		outcome.Message = fmt.Sprintf("Now playing: %s by %s", selected.Title, selected.Artist)
	}

	if a.history != nil {
		key := a.norm.TrackKey(selected.Title, selected.Artist)
		outcome.Repeat = a.history.Has(key)
		a.history.Add(key)
		if outcome.Repeat {
			a.journal.Event("track was played recently")
		}
	}

	if !a.config.App.Verbose {
		if queue, err := a.sonos.ShowQueue(ctx); err == nil {
			outcome.Queue = queue
		} else {
			a.logger.Warn("Failed to fetch queue", zap.Error(err))
		}
	}

	return outcome
}

func (a *Agent) describeTarget(target *ParsedRequest) string {
	if target.Mode() == ModeAlbum {
		return target.Album
	}
	return target.Title
}

func orUnknown(artist string) string {
	if artist == "" {
		return "unknown artist"
	}
	return artist
}
