// Package lines turns an incoming stream of arbitrarily sized text chunks into
// complete newline-delimited records. Replay files are fed to the service in
// chunks that do not align with line boundaries, so the trailing partial line
// of each chunk is buffered until the next chunk (or end of stream) completes it.
package lines

import "strings"

// Splitter accumulates chunks and emits complete lines. Both "\n" and "\r\n"
// terminators are accepted; terminators are stripped from the returned lines.
// The zero value is ready to use.
type Splitter struct {
	leftover string
}

// Push consumes one chunk and returns every line completed by it, in order.
// A trailing partial line is retained for the next call. Empty lines are
// returned as empty strings so callers can skip them explicitly.
func (s *Splitter) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}
	text := s.leftover + chunk
	s.leftover = ""

	parts := strings.Split(text, "\n")
	// The final element is either an incomplete line or "" when the chunk
	// ended exactly on a terminator.
	s.leftover = parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	out := make([]string, 0, len(parts))
	for _, line := range parts {
		out = append(out, strings.TrimSuffix(line, "\r"))
	}
	return out
}

// Flush returns the buffered partial line, if any, and resets the splitter.
// It must be called once at end of stream; a partial final record without a
// trailing newline is only surfaced here.
func (s *Splitter) Flush() (string, bool) {
	if s.leftover == "" {
		return "", false
	}
	line := strings.TrimSuffix(s.leftover, "\r")
	s.leftover = ""
	return line, true
}

// Reset drops any buffered partial line.
func (s *Splitter) Reset() {
	s.leftover = ""
}
