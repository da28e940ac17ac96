// Package sonos wraps the external sonos command-line tool. The CLI is the
// only search and playback surface: searchtrack/searchalbum return numbered
// result lines, select plays a position from the last search.
package sonos

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"sonosdj/internal/core"
)

var (
	// "position. Title-Artist-Album"
	resultLineRegex = regexp.MustCompile(`^(\d+)\.\s+(.+?)-(.+?)-(.+)$`)
	// Older output without the album field.
	legacyLineRegex = regexp.MustCompile(`^(\d+)\.\s+(.+?)-(.+)$`)
)

type Client struct {
	config *core.SonosConfig
	logger *zap.Logger
	record func(command, status string)

	// runner is swapped in tests.
	runner func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

func NewClient(config *core.SonosConfig, logger *zap.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		runner: execRunner,
	}
}

// SetCommandRecorder wires a metrics callback invoked per CLI command.
func (c *Client) SetCommandRecorder(record func(command, status string)) {
	c.record = record
}

func (c *Client) SearchTracks(ctx context.Context, query string) ([]core.Candidate, error) {
	out, err := c.run(ctx, "searchtrack", strings.Fields(query)...)
	if err != nil {
		return nil, err
	}
	return ParseSearchOutput(out), nil
}

func (c *Client) SearchAlbums(ctx context.Context, query string) ([]core.Candidate, error) {
	out, err := c.run(ctx, "searchalbum", strings.Fields(query)...)
	if err != nil {
		return nil, err
	}
	return ParseSearchOutput(out), nil
}

// Select plays the track at the given position from the last search results.
func (c *Client) Select(ctx context.Context, position int) error {
	_, err := c.run(ctx, "select", strconv.Itoa(position))
	return err
}

func (c *Client) ShowQueue(ctx context.Context) (string, error) {
	return c.run(ctx, "showqueue")
}

func (c *Client) NowPlaying(ctx context.Context) (string, error) {
	return c.run(ctx, "what")
}

func (c *Client) run(ctx context.Context, command string, args ...string) (string, error) {
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, c.config.CommandTimeout)
	defer cancel()

	cmdArgs := append([]string{command}, args...)
	c.logger.Debug("Executing player command",
		zap.String("binary", c.config.Binary),
		zap.Strings("args", cmdArgs))

	stdout, stderr, err := c.runner(runCtx, c.config.Binary, cmdArgs...)
	elapsed := time.Since(start)

	if err != nil {
		c.recordCommand(command, "error")
		c.logger.Warn("Player command failed",
			zap.String("command", command),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))

		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%s %s timed out after %s", c.config.Binary, command, c.config.CommandTimeout)
		}

		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%s %s failed: %s", c.config.Binary, command, detail)
	}

	c.recordCommand(command, "ok")
	c.logger.Debug("Player command completed",
		zap.String("command", command),
		zap.Duration("elapsed", elapsed))

	return strings.TrimSpace(string(stdout)), nil
}

func (c *Client) recordCommand(command, status string) {
	if c.record != nil {
		c.record(command, status)
	}
}

// ParseSearchOutput turns numbered "Title-Artist-Album" result lines into
// candidates. Lines that match neither format are skipped.
func ParseSearchOutput(output string) []core.Candidate {
	var candidates []core.Candidate

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := resultLineRegex.FindStringSubmatch(line); m != nil {
			position, _ := strconv.Atoi(m[1])
			candidates = append(candidates, core.Candidate{
				Position: position,
				Title:    strings.TrimSpace(m[2]),
				Artist:   strings.TrimSpace(m[3]),
				Album:    strings.TrimSpace(m[4]),
				Raw:      line,
			})
			continue
		}

		if m := legacyLineRegex.FindStringSubmatch(line); m != nil {
			position, _ := strconv.Atoi(m[1])
			candidates = append(candidates, core.Candidate{
				Position: position,
				Title:    strings.TrimSpace(m[2]),
				Artist:   strings.TrimSpace(m[3]),
				Album:    "Unknown Album",
				Raw:      line,
			})
		}
	}

	return candidates
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
