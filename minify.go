package seam

import (
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
)

var (
	minifier     *minify.M
	minifierOnce sync.Once
)

// getMinifier returns a configured HTML minifier (singleton)
func getMinifier() *minify.M {
	minifierOnce.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
	})
	return minifier
}

// minifyHTML removes unnecessary whitespace from HTML while preserving content
func minifyHTML(htmlContent string) string {
	if strings.Contains(htmlContent, "<") {
		minified, err := getMinifier().String("text/html", htmlContent)
		if err != nil {
			// If minification fails, fall back to original content
			return htmlContent
		}
		return minified
	}

	// For text-only content, collapsing runs of whitespace is enough
	return strings.Join(strings.Fields(htmlContent), " ")
}
