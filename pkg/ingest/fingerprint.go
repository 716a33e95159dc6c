package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// fingerprintFrames is how many top stack frames participate in the
// fingerprint. Deep frames churn across refactors; the top of the
// stack identifies the error class.
const fingerprintFrames = 3

// Frame extraction patterns per platform stack trace dialect.
var (
	pythonFrame = regexp.MustCompile(`File "([^"]+)", line (\d+)`)
	nodeFrame   = regexp.MustCompile(`at\s+(?:.*?\()?([^\s()]+):(\d+):\d+\)?`)
	javaFrame   = regexp.MustCompile(`at\s+[\w.$<>]+\(([\w.]+):(\d+)\)`)
)

// Fingerprint computes the deterministic 64-hex-char identity of an
// error class: SHA-256 over the error type, the normalized top stack
// frames and the platform.
func Fingerprint(errorType, stackTrace, platform string) string {
	frames := topFrames(stackTrace, platform, fingerprintFrames)
	canonical := errorType + ":" + strings.Join(frames, "|") + ":" + platform
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// topFrames extracts up to max "file:line" pairs from the head of a
// stack trace. The platform hint selects the dialect; without one,
// each dialect is tried in order.
func topFrames(stackTrace, platform string, max int) []string {
	if stackTrace == "" {
		return nil
	}

	var patterns []*regexp.Regexp
	switch strings.ToLower(platform) {
	case "python":
		patterns = []*regexp.Regexp{pythonFrame}
	case "node", "javascript", "js":
		patterns = []*regexp.Regexp{nodeFrame}
	case "java", "kotlin":
		patterns = []*regexp.Regexp{javaFrame}
	default:
		patterns = []*regexp.Regexp{pythonFrame, nodeFrame, javaFrame}
	}

	for _, pattern := range patterns {
		matches := pattern.FindAllStringSubmatch(stackTrace, max)
		if len(matches) == 0 {
			continue
		}
		frames := make([]string, 0, len(matches))
		for _, m := range matches {
			frames = append(frames, fmt.Sprintf("%s:%s", m[1], m[2]))
		}
		return frames
	}
	return nil
}
