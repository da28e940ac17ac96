// Package llm turns the configured completion service into the parsing,
// selection and album-lookup oracle used by the request pipeline.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sonosdj/internal/core"
)

const (
	maxTokensParse  = 200
	maxTokensSelect = 10
	maxTokensLookup = 50
)

// Completer is one text-in/text-out completion backend.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (string, error)
}

// Provider implements core.LLMProvider on top of a Completer.
type Provider struct {
	config *core.LLMConfig
	logger *zap.Logger
	client Completer
}

func NewProvider(config *core.LLMConfig, logger *zap.Logger) (*Provider, error) {
	var client Completer
	var err error

	switch config.Provider {
	case "anthropic":
		client, err = NewAnthropicClient(config, logger)
	case "openai":
		client, err = NewOpenAIClient(config, logger)
	case "ollama":
		client, err = NewOllamaClient(config, logger)
	case "none", "":
		client = &NoOpClient{}
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", config.Provider, err)
	}

	return &Provider{
		config: config,
		logger: logger,
		client: client,
	}, nil
}

type parseResponse struct {
	Title       *string         `json:"title"`
	Artist      *string         `json:"artist"`
	Album       *string         `json:"album"`
	Preferences map[string]bool `json:"preferences"`
}

func (p *Provider) ParseRequest(ctx context.Context, text string) (*core.ParsedRequest, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty request text")
	}

	content, err := p.client.Complete(ctx, FormatParsingPrompt(text), maxTokensParse)
	if err != nil {
		return nil, err
	}

	parsed, err := decodeParseResponse(content)
	if err != nil {
		p.logger.Error("Failed to parse LLM response",
			zap.Error(err),
			zap.String("content", content))
		return nil, err
	}

	if parsed.Title == "" && parsed.Artist == "" && parsed.Album == "" {
		return nil, fmt.Errorf("LLM parse produced no title, artist or album")
	}

	p.logger.Debug("Request parsed",
		zap.String("title", parsed.Title),
		zap.String("artist", parsed.Artist),
		zap.String("album", parsed.Album))

	return parsed, nil
}

func (p *Provider) SelectTrack(ctx context.Context, candidates []core.Candidate, target *core.ParsedRequest) (int, error) {
	return p.selectPosition(ctx, FormatTrackSelectionPrompt(target, candidates), candidates)
}

func (p *Provider) SelectAlbum(ctx context.Context, candidates []core.Candidate, target *core.ParsedRequest) (int, error) {
	return p.selectPosition(ctx, FormatAlbumSelectionPrompt(target, candidates), candidates)
}

func (p *Provider) selectPosition(ctx context.Context, prompt string, candidates []core.Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, fmt.Errorf("no candidates to select from")
	}

	prompt += "\n\nIMPORTANT: Return ONLY the position number (integer), no explanation or other text."

	content, err := p.client.Complete(ctx, prompt, maxTokensSelect)
	if err != nil {
		return 0, err
	}

	position, err := firstInteger(content)
	if err != nil {
		return 0, fmt.Errorf("could not parse position from %q: %w", content, err)
	}

	for _, c := range candidates {
		if c.Position == position {
			p.logger.Debug("LLM selected position", zap.Int("position", position))
			return position, nil
		}
	}

	return 0, fmt.Errorf("LLM selected position %d not present in results", position)
}

func (p *Provider) LookupAlbum(ctx context.Context, title, artist string) (string, error) {
	content, err := p.client.Complete(ctx, FormatAlbumLookupPrompt(title, artist), maxTokensLookup)
	if err != nil {
		return "", err
	}

	album := strings.TrimSpace(content)
	if album == "" {
		return "", fmt.Errorf("album lookup returned empty result")
	}

	return album, nil
}

// decodeParseResponse accepts the strict JSON answer, tolerating models that
// wrap the object in prose or code fences.
func decodeParseResponse(content string) (*core.ParsedRequest, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var resp parseResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		// Models sometimes wrap the object in prose despite the
		// instructions. Retry on the outermost brace pair.
		open := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if open < 0 || end <= open {
			return nil, fmt.Errorf("response is not a JSON object: %w", err)
		}
		if inner := json.Unmarshal([]byte(content[open:end+1]), &resp); inner != nil {
			return nil, fmt.Errorf("response is not a JSON object: %w", inner)
		}
	}

	parsed := &core.ParsedRequest{
		Title:  deref(resp.Title),
		Artist: deref(resp.Artist),
		Album:  deref(resp.Album),
	}
	parsed.Preferences = core.Preferences{
		PreferLive:     resp.Preferences["prefer_live"],
		PreferAcoustic: resp.Preferences["prefer_acoustic"],
		PreferStudio:   resp.Preferences["prefer_studio"],
	}

	return parsed, nil
}

func firstInteger(content string) (int, error) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty response")
	}
	return strconv.Atoi(strings.TrimRight(fields[0], ".,"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// NoOpClient makes every operation fail so the caller degrades to the
// heuristic path.
type NoOpClient struct{}

func (n *NoOpClient) Complete(_ context.Context, _ string, _ int64) (string, error) {
	return "", fmt.Errorf("LLM provider not configured")
}
