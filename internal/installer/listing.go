package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"blender-downloader/internal/config"
	"blender-downloader/internal/logger"
)

// FetchLinks downloads the listing page and returns every anchor href in document order.
func FetchLinks(ctx context.Context, client *http.Client, listingURL string) ([]string, error) {
	logger.Debug("[DEBUG] Fetching listing page from URL: %s\n", listingURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", listingURL, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", listingURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close HTTP response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("listing fetch failed for %s: HTTP status %d", listingURL, resp.StatusCode)
	}

	links, err := ParseLinks(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page %s: %w", listingURL, err)
	}
	logger.Debug("[DEBUG] Listing page has %d links\n", len(links))
	return links, nil
}

// ParseLinks parses an HTML document and returns the href of every <a> element
// in document order. Anchors without an href are skipped.
func ParseLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			for _, attr := range n.Attr {
				if attr.Namespace == "" && attr.Key == "href" {
					links = append(links, attr.Val)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

// SelectLink returns the first link, in the order given, that names the
// requested build: it contains "<product>-<version>", contains the OS tag and
// ends with the archive extension.
//
// There is no recency ordering. If the page lists several matching builds the
// first one in the document wins.
func SelectLink(links []string, opts config.Options) (string, bool) {
	token := opts.BuildToken()
	for _, link := range links {
		if matchesBuild(link, token, opts.OS, opts.Archive) {
			logger.Debug("[DEBUG] Found matching link: %s\n", link)
			return link, true
		}
	}
	return "", false
}

// matchesBuild applies the three substring/suffix checks. The suffix check
// ignores any query string or fragment.
func matchesBuild(link, token, osTag, ext string) bool {
	if !strings.Contains(link, token) || !strings.Contains(link, osTag) {
		return false
	}
	return strings.HasSuffix(stripQuery(link), ext)
}

func stripQuery(link string) string {
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		return link[:i]
	}
	return link
}

// resolveLink turns a possibly relative href into an absolute URL using the listing page as base.
func resolveLink(listingURL, link string) (string, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %s: %w", listingURL, err)
	}
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid build link %s: %w", link, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// archiveName returns the file name component of a build link.
func archiveName(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid build link %s: %w", link, err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("build link %s has no file name", link)
	}
	return name, nil
}
