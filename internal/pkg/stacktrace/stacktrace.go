// Package stacktrace trims goroutine dumps down to this module's frames.
package stacktrace

import "strings"

// InternalPaths returns "internal/<pkg>/<file>.go:<line>" for every frame
// that lives under an internal/ directory.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		line = strings.TrimSpace(line)

		_, rel, ok := strings.Cut(line, "/internal/")
		if !ok || !strings.Contains(rel, ".go:") {
			continue
		}
		if sp := strings.IndexByte(rel, ' '); sp != -1 {
			rel = rel[:sp]
		}
		paths = append(paths, "internal/"+rel)
	}
	return paths
}
