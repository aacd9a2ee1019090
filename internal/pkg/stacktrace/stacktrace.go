package stacktrace

import "strings"

// InternalPaths extracts "internal/...go:line" frames from a debug.Stack
// dump. Frames outside an internal/ tree are dropped.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)

		dot := strings.Index(line, ".go:")
		if dot == -1 {
			continue
		}

		frame := line
		if sp := strings.IndexByte(line[dot:], ' '); sp != -1 {
			frame = line[:dot+sp]
		}

		idx := strings.Index(frame, "/internal/")
		if idx == -1 {
			continue
		}
		paths = append(paths, frame[idx+1:])
	}

	return paths
}
