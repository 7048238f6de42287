// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package gtfobins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

const (
	// DefaultBaseURL is the public GTFOBins index.
	DefaultBaseURL = "https://gtfobins.github.io/"

	// SUIDMarker is appended to the base URL and must appear in every
	// resolved catalog link that is kept.
	SUIDMarker = "#+suid"

	defaultTimeout  = 60 * time.Second
	maxResponseSize = 10 * 1024 * 1024 // 10 MB
	tableSelector   = "table#bin-table"
)

var (
	// ErrFetch is returned when the catalog page cannot be downloaded.
	ErrFetch = errors.New("fetching catalog")
	// ErrTableNotFound is returned when the page has no bin-table element.
	ErrTableNotFound = errors.New("table with id 'bin-table' not found")
	// ErrTooLarge is returned when the catalog page exceeds the size cap.
	ErrTooLarge = errors.New("catalog page too large")
)

// Config configures a catalog Source. Zero values select the defaults.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Source scrapes the GTFOBins index for binaries with a documented setuid
// exploitation path.
type Source struct {
	baseURL string
	client  *http.Client
}

// NewSource creates a catalog source from cfg.
func NewSource(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Source{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// PageURL returns the effective page URL: the base URL with the setuid
// marker fragment. Catalog links are resolved against it.
func (s *Source) PageURL() string {
	return s.baseURL + SUIDMarker
}

// Fetch downloads the catalog page and extracts its setuid entries.
//
// A nil error with an empty slice means the page was read and the table was
// present, but no row qualified.
func (s *Source) Fetch(ctx context.Context) ([]types.CatalogEntry, error) {
	body, err := s.download(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return ParseHTML(bytes.NewReader(body), s.PageURL())
}

// Parse extracts catalog entries from a previously saved copy of the page.
func (s *Source) Parse(r io.Reader) ([]types.CatalogEntry, error) {
	return ParseHTML(r, s.PageURL())
}

// download issues the GET request. The marker fragment is client-side only
// and is never sent.
func (s *Source) download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, s.baseURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(data) > maxResponseSize {
		return nil, fmt.Errorf("%w: response from %s exceeds %d bytes", ErrTooLarge, s.baseURL, maxResponseSize)
	}
	return data, nil
}

// ParseHTML locates the bin-table in the document and returns one entry per
// row whose first cell links to a page carrying the setuid marker. Rows
// without such a link are skipped silently.
func ParseHTML(r io.Reader, pageURL string) ([]types.CatalogEntry, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog HTML: %w", err)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w on %s", ErrTableNotFound, pageURL)
	}

	entries := make([]types.CatalogEntry, 0)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		href, ok := firstCellHref(row)
		if !ok {
			return
		}
		if entry, ok := entryFromHref(base, href); ok {
			entries = append(entries, entry)
		}
	})

	return entries, nil
}

// firstCellHref returns the href of the first anchor in the row's first td.
// Header rows (th only) and cells without a link report false.
func firstCellHref(row *goquery.Selection) (string, bool) {
	cell := row.Find("td").First()
	if cell.Length() == 0 {
		return "", false
	}
	return cell.Find("a").First().Attr("href")
}

// entryFromHref resolves href against base and derives the binary name.
//
// The link is resolved with its leading slashes removed, so it is joined
// relative to the base path. The name is the last segment of the link's path
// with surrounding slashes trimmed; query and fragment are not part of it.
func entryFromHref(base *url.URL, href string) (types.CatalogEntry, bool) {
	ref, err := url.Parse(strings.TrimLeft(href, "/"))
	if err != nil {
		return types.CatalogEntry{}, false
	}

	resolved := base.ResolveReference(ref).String()
	if !strings.Contains(resolved, SUIDMarker) {
		return types.CatalogEntry{}, false
	}

	return types.CatalogEntry{Name: lastSegment(ref.Path), URL: resolved}, true
}

func lastSegment(p string) string {
	p = strings.Trim(p, "/")
	return p[strings.LastIndex(p, "/")+1:]
}
