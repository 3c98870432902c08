// Package clipper downloads a recipe web page and reduces it to plain
// text fit for AI analysis.
package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxTextRunes caps the extracted text so one oversized page cannot
// blow up the analysis prompt.
const maxTextRunes = 20000

// noiseSelector matches the nodes stripped before text extraction.
const noiseSelector = "script, style, noscript, nav, header, footer, aside, iframe, form, .ads, #ads"

// Clipper fetches pages with a bounded client so a slow site cannot
// stall the session.
type Clipper struct {
	httpClient *http.Client
}

// New returns a Clipper with a 15 second request timeout.
func New() *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// LooksLikeURL reports whether text is a single absolute http(s) URL,
// which is how a pasted link is told apart from a typed recipe.
func LooksLikeURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return false
	}
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch downloads the page and returns its readable text with scripts,
// page chrome and ads stripped out.
func (c *Clipper) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid clip url: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Recipe33/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	doc.Find(noiseSelector).Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	text := normalize(doc.Find("body").Text())
	if text == "" {
		return "", fmt.Errorf("page has no readable text")
	}
	return text, nil
}

// normalize collapses whitespace runs, drops blank lines and caps the
// overall length.
func normalize(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.Join(lines, "\n")
	if runes := []rune(text); len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	return text
}
