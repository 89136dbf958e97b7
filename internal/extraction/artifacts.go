package extraction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const textExt = ".txt"

var urlFileNameReplacer = strings.NewReplacer("http://", "", "https://", "", "/", "_")

// TextFileName derives the saved-text file name for a URL:
// "https://example.com/a/b" becomes "example.com_a_b.txt".
func TextFileName(url string) string {
	return urlFileNameReplacer.Replace(url) + textExt
}

// GraphFileName derives the graph file name that sits next to a source text
// file: "example.com_a.txt" with suffix "_graph.json" becomes
// "example.com_a_graph.json". Sources without a .txt extension keep their
// full base name.
func GraphFileName(source, suffix string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, textExt) + suffix
}

// SaveText writes the page text fetched from url into dir and returns the
// path written.
func SaveText(url, dir, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	path := filepath.Join(dir, TextFileName(url))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to save text for %s: %w", url, err)
	}
	return path, nil
}
