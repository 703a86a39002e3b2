// Package scrape fetches web pages and extracts their readable text so they can be used as prompt context or
// ingested into the knowledge store.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 2 << 20
	userAgent       = "Mozilla/5.0 (compatible; prompt-pilot/1.0)"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]{2,}`)
)

// Page is the readable content of a fetched URL
type Page struct {
	URL   string
	Title string
	Text  string
}

// Scraper fetches pages over HTTP
type Scraper struct {
	client   *http.Client
	maxBytes int64
}

// New creates a scraper. A nil client selects one with a 60 second timeout.
func New(httpClient *http.Client) *Scraper {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Scraper{client: httpClient, maxBytes: defaultMaxBytes}
}

// Fetch downloads url and extracts its text. HTML is reduced to visible text; plain text and markdown are returned as
// they are. Bodies are read up to a size cap.
func (s *Scraper) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read %s: %w", url, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/plain") || strings.Contains(contentType, "text/markdown") {
		return Page{URL: url, Text: string(body)}, nil
	}

	page, err := ExtractHTML(string(body))
	if err != nil {
		return Page{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}
	page.URL = url

	zap.S().Debugf("Fetched %s (%d chars)", url, len(page.Text))
	return page, nil
}

// ExtractHTML returns the title and the visible text of an HTML document
func ExtractHTML(content string) (Page, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return Page{}, err
	}

	var (
		page Page
		sb   strings.Builder
	)
	extractText(doc, &sb, &page, 0)

	page.Text = cleanText(sb.String())
	return page, nil
}

func extractText(n *html.Node, sb *strings.Builder, page *Page, depth int) {
	if depth > 100 {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "template":
			return
		case "title":
			if page.Title == "" && n.FirstChild != nil {
				page.Title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "div", "section", "article", "pre", "table", "tr", "ul", "ol":
			sb.WriteString("\n\n")
		case "br":
			sb.WriteString("\n")
		case "li":
			sb.WriteString("\n- ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb, page, depth+1)
	}
}

func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpacePattern.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiNewlinePattern.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
