// Package discover finds timetable PDFs on a published HTML listing page,
// for bulk-importing records instead of creating them one by one.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link is one PDF document referenced by a listing page.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

const maxPageBytes = 4 << 20

// Fetch downloads a listing page and returns the PDF links it references.
// Relative hrefs resolve against the final URL after redirects.
func Fetch(ctx context.Context, client *http.Client, pageURL string) ([]Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", pageURL, resp.StatusCode)
	}

	base := resp.Request.URL
	return PDFLinks(io.LimitReader(resp.Body, maxPageBytes), base)
}

// PDFLinks walks an HTML document and returns the distinct PDF links found,
// paired with their anchor text, in document order.
func PDFLinks(r io.Reader, base *url.URL) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var links []Link
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := attrVal(n, "href"); ok && isPDFHref(href) {
				if u, err := base.Parse(href); err == nil && !seen[u.String()] {
					seen[u.String()] = true
					links = append(links, Link{
						Title: strings.TrimSpace(textContent(n)),
						URL:   u.String(),
					})
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

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isPDFHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
