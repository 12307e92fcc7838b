package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/moonbit-tools/moonbridge/internal/buildlog"
)

// minToolVersion is the oldest watch tool release whose output markers
// this package knows how to parse.
const minToolVersion = "0.1.0"

// checkToolVersion runs `moon version` once before the watch spawn and
// buffers a warning when the tool predates the supported marker
// wording. Failures are soft: an unreadable version never blocks the
// watch loop.
func (s *Supervisor) checkToolVersion(ctx context.Context) {
	cmd := exec.CommandContext(ctx, s.command, "version")
	cmd.Dir = s.root

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		s.log.Debug("tool version check skipped", zap.Error(err))
		return
	}

	version := parseToolVersion(out.String())
	if version == "" {
		s.log.Debug("tool version not recognized", zap.String("output", strings.TrimSpace(out.String())))
		return
	}

	if semver.Compare("v"+version, "v"+minToolVersion) < 0 {
		text := fmt.Sprintf("%s %s is older than the oldest supported release (%s); build progress markers may not be detected", s.command, version, minToolVersion)
		s.buf.Append(buildlog.Record{Text: text, Kind: buildlog.KindWarn})
		s.log.Warn("watch tool older than supported", zap.String("version", version))
	}
}

// parseToolVersion extracts the version token from output such as
// "moon 0.1.20 (a1b2c3d 2024-06-01)".
func parseToolVersion(output string) string {
	for _, field := range strings.Fields(output) {
		if field == "" || !unicode.IsDigit(rune(field[0])) {
			continue
		}
		if semver.IsValid("v" + field) {
			return field
		}
	}
	return ""
}
