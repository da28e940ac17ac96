package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// QueryBuilder produces the ranked sequence of search-query variants for a
// parsed request, ordered from the most specific to the broadest. Later
// variants only run when earlier ones return nothing usable.
type QueryBuilder struct {
	llm    LLMProvider
	logger *zap.Logger
}

func NewQueryBuilder(llm LLMProvider, logger *zap.Logger) *QueryBuilder {
	return &QueryBuilder{llm: llm, logger: logger}
}

// Build returns the ordered, deduplicated query variants. The primary query
// carries the version preference as a search term; the narrower fallbacks
// drop fields one at a time. When title and artist are known and the LLM is
// available, an album-lookup variant is inserted before the broadest ones:
// searching by album often succeeds where an awkward title fails.
func (qb *QueryBuilder) Build(ctx context.Context, target *ParsedRequest) []string {
	var queries []string

	if target.Mode() == ModeAlbum {
		queries = append(queries,
			joinTerms(target.Artist, target.Album)+qb.preferenceSuffix(target.Preferences),
			joinTerms(target.Album),
			joinTerms(target.Artist),
		)
		return dedupeQueries(queries)
	}

	queries = append(queries,
		joinTerms(target.Title, target.Artist, target.Album)+qb.preferenceSuffix(target.Preferences),
		joinTerms(target.Title, target.Artist),
	)

	if target.Album != "" {
		queries = append(queries, joinTerms(target.Title, target.Album))
	}

	if qb.llm != nil && target.Title != "" && target.Artist != "" {
		if album, err := qb.llm.LookupAlbum(ctx, target.Title, target.Artist); err == nil && album != "" {
			qb.logger.Debug("Album lookup variant",
				zap.String("title", target.Title),
				zap.String("album", album))
			queries = append(queries, joinTerms(target.Artist, album))
		} else if err != nil {
			qb.logger.Debug("Album lookup failed", zap.Error(err))
		}
	}

	queries = append(queries, joinTerms(target.Title))

	return dedupeQueries(queries)
}

func (qb *QueryBuilder) preferenceSuffix(prefs Preferences) string {
	switch {
	case prefs.PreferLive:
		return " live"
	case prefs.PreferAcoustic:
		return " acoustic"
	case prefs.PreferStudio:
		return " studio"
	}
	return ""
}

func joinTerms(terms ...string) string {
	var parts []string
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term != "" {
			parts = append(parts, term)
		}
	}
	return strings.Join(parts, " ")
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}
