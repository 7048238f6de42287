// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package gtfobins

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

const pageURL = "https://gtfobins.github.io/#+suid"

// samplePage mimics the index layout: a header row, linked rows with and
// without the marker, rows without links and a link outside the first cell.
const samplePage = `<!DOCTYPE html>
<html><body>
<table id="bin-table">
  <thead><tr><th>Binary</th><th>Functions</th></tr></thead>
  <tbody>
    <tr><td><a href="/gtfobins/bash/">bash</a></td><td><a href="/gtfobins/bash/#+suid">SUID</a></td></tr>
    <tr><td><a href="find#+suid">find</a></td><td>Shell</td></tr>
    <tr><td><a href="/gtfobins/vim/#+suid">vim</a></td><td>Shell</td></tr>
    <tr><td>no-link</td><td><a href="nolink#+suid">SUID</a></td></tr>
    <tr><td><a href="https://mirror.example/bins/less#+suid">less</a></td><td></td></tr>
    <tr><td><a name="anchor-only">awk</a></td><td></td></tr>
  </tbody>
</table>
</body></html>`

func TestParseHTML(t *testing.T) {
	entries, err := ParseHTML(strings.NewReader(samplePage), pageURL)
	require.NoError(t, err)

	want := []types.CatalogEntry{
		{Name: "find", URL: "https://gtfobins.github.io/find#+suid"},
		{Name: "vim", URL: "https://gtfobins.github.io/gtfobins/vim/#+suid"},
		{Name: "less", URL: "https://mirror.example/bins/less#+suid"},
	}
	assert.Equal(t, want, entries)
}

func TestParseHTML_TableNotFound(t *testing.T) {
	html := `<html><body><table id="other"><tr><td><a href="find#+suid">find</a></td></tr></table></body></html>`

	entries, err := ParseHTML(strings.NewReader(html), pageURL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.Nil(t, entries)
}

func TestParseHTML_RowsWithoutLinks(t *testing.T) {
	html := `<table id="bin-table">
<tr><td>bash</td></tr>
<tr><td><span>find</span></td><td><a href="find#+suid">x</a></td></tr>
<tr><th><a href="vim#+suid">vim</a></th></tr>
</table>`

	entries, err := ParseHTML(strings.NewReader(html), pageURL)
	require.NoError(t, err)
	assert.NotNil(t, entries, "empty result must be distinguishable from failure")
	assert.Empty(t, entries)
}

func TestParseHTML_MarkerRequired(t *testing.T) {
	html := `<table id="bin-table">
<tr><td><a href="/gtfobins/find/">find</a></td></tr>
<tr><td><a href="/gtfobins/vim/#sudo">vim</a></td></tr>
<tr><td><a href="/gtfobins/less/#suid">less</a></td></tr>
</table>`

	entries, err := ParseHTML(strings.NewReader(html), pageURL)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEntryFromHref(t *testing.T) {
	base, err := url.Parse(pageURL)
	require.NoError(t, err)

	tests := []struct {
		href     string
		wantOK   bool
		wantName string
		wantURL  string
	}{
		{href: "find#+suid", wantOK: true, wantName: "find", wantURL: "https://gtfobins.github.io/find#+suid"},
		{href: "//gtfobins/nmap/#+suid", wantOK: true, wantName: "nmap", wantURL: "https://gtfobins.github.io/gtfobins/nmap/#+suid"},
		{href: "Find#+suid", wantOK: true, wantName: "Find", wantURL: "https://gtfobins.github.io/Find#+suid"},
		{href: "", wantOK: true, wantName: "", wantURL: "https://gtfobins.github.io/#+suid"},
		{href: "/gtfobins/find/", wantOK: false},
		{href: "find?x=1", wantOK: false},
		{href: "%zz#+suid", wantOK: false},
	}

	for _, tc := range tests {
		t.Run(tc.href, func(t *testing.T) {
			entry, ok := entryFromHref(base, tc.href)
			assert.Equal(t, tc.wantOK, ok)
			if !tc.wantOK {
				return
			}
			assert.Equal(t, tc.wantName, entry.Name)
			assert.Equal(t, tc.wantURL, entry.URL)
		})
	}
}

func TestSource_PageURL(t *testing.T) {
	s := NewSource(Config{})
	assert.Equal(t, "https://gtfobins.github.io/#+suid", s.PageURL())

	s = NewSource(Config{BaseURL: "http://127.0.0.1:8080/"})
	assert.Equal(t, "http://127.0.0.1:8080/#+suid", s.PageURL())
}

func TestSource_Fetch(t *testing.T) {
	requests := make(chan *url.URL, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.URL
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s := NewSource(Config{BaseURL: srv.URL + "/"})
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)

	got := <-requests
	assert.Equal(t, "/", got.Path)
	assert.Empty(t, got.RawQuery)
	assert.Empty(t, got.Fragment, "marker must not reach the server")

	require.Len(t, entries, 3)
	assert.Equal(t, "find", entries[0].Name)
	assert.Equal(t, srv.URL+"/find#+suid", entries[0].URL)
	assert.Equal(t, srv.URL+"/gtfobins/vim/#+suid", entries[1].URL)
}

func TestSource_Fetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewSource(Config{BaseURL: srv.URL + "/"})
	entries, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Nil(t, entries)
}

func TestSource_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/"
	srv.Close()

	s := NewSource(Config{BaseURL: base})
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestSource_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	s := NewSource(Config{BaseURL: srv.URL + "/", Timeout: 50 * time.Millisecond})
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestSource_Fetch_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
		_, _ = w.Write([]byte(strings.Repeat(" ", maxResponseSize)))
	}))
	defer srv.Close()

	s := NewSource(Config{BaseURL: srv.URL + "/"})
	entries, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.Nil(t, entries)
}

func TestSource_Fetch_AtSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
		_, _ = w.Write([]byte(strings.Repeat(" ", maxResponseSize-len(samplePage))))
	}))
	defer srv.Close()

	s := NewSource(Config{BaseURL: srv.URL + "/"})
	entries, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSource_Fetch_TableMissing(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html><body><p>redesigned</p></body></html>`))
	}))
	defer srv.Close()

	s := NewSource(Config{BaseURL: srv.URL + "/"})
	_, err := s.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.False(t, errors.Is(err, ErrFetch))
	assert.Equal(t, int32(1), hits.Load())
}

func TestSource_Parse(t *testing.T) {
	s := NewSource(Config{BaseURL: "https://mirror.internal/"})
	entries, err := s.Parse(strings.NewReader(samplePage))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "https://mirror.internal/find#+suid", entries[0].URL)
}
