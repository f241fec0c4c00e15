package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// DefaultFetchTimeout is the default timeout for page downloads
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxPageSize is the default maximum page size (5MB)
	DefaultMaxPageSize = 5 * 1024 * 1024
)

// PageFetcher downloads a product page and reduces it to the text a shopper
// would see.
type PageFetcher struct {
	client  *http.Client
	timeout time.Duration
	maxSize int64
}

// NewPageFetcher creates a new PageFetcher with default settings.
func NewPageFetcher() *PageFetcher {
	return &PageFetcher{
		client: &http.Client{
			Timeout: DefaultFetchTimeout,
		},
		timeout: DefaultFetchTimeout,
		maxSize: DefaultMaxPageSize,
	}
}

// WithTimeout sets a custom timeout for downloads.
func (f *PageFetcher) WithTimeout(timeout time.Duration) *PageFetcher {
	f.timeout = timeout
	f.client.Timeout = timeout
	return f
}

// WithMaxSize sets a custom maximum page size.
func (f *PageFetcher) WithMaxSize(maxSize int64) *PageFetcher {
	f.maxSize = maxSize
	return f
}

// Fetch downloads pageURL. The returned page carries the document title,
// the og:image URL when present and the visible text.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to download page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "text/html") {
		return Page{}, fmt.Errorf("invalid content type: expected text/html, got %s", contentType)
	}

	if resp.ContentLength > f.maxSize {
		return Page{}, fmt.Errorf("page too large: %d bytes exceeds limit of %d bytes", resp.ContentLength, f.maxSize)
	}

	// Use LimitReader to enforce size limit even if Content-Length is missing or wrong
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read page: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return Page{}, fmt.Errorf("page too large: exceeds limit of %d bytes", f.maxSize)
	}

	page := ParseHTML(data)
	page.URL = pageURL
	log.Debug().Str("url", pageURL).Int("textChars", len(page.Text)).Msg("fetched product page")
	return page, nil
}

// ParseHTML pulls the title, og:image and visible text out of a document.
// Script, style and similar non-visible elements are skipped.
func ParseHTML(data []byte) Page {
	var page Page
	var text []string
	var inTitle bool
	skip := 0

	z := html.NewTokenizer(bytes.NewReader(data))
	for {
		switch z.Next() {
		case html.ErrorToken:
			page.Title = strings.TrimSpace(page.Title)
			page.Text = strings.Join(text, "\n")
			return page
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg:
				if tok.Type == html.StartTagToken {
					skip++
				}
			case atom.Title:
				inTitle = tok.Type == html.StartTagToken
			case atom.Meta:
				if page.ImageURL == "" && attr(tok, "property") == "og:image" {
					page.ImageURL = strings.TrimSpace(attr(tok, "content"))
				}
			}
		case html.EndTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg:
				if skip > 0 {
					skip--
				}
			case atom.Title:
				inTitle = false
			}
		case html.TextToken:
			if skip > 0 {
				continue
			}
			s := strings.Join(strings.Fields(string(z.Text())), " ")
			if s == "" {
				continue
			}
			if inTitle {
				page.Title += s
				continue
			}
			text = append(text, s)
		}
	}
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
