package refextract

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/promptkit/internal/markdown"
)

var bareURL = regexp.MustCompile(`https?://[^\s<>()|]+`)

// cellURL returns the URL a cell points at: a markdown link destination first, then
// an HTML anchor, then a bare URL in the text.
func cellURL(c markdown.Cell) string {
	if len(c.Links) > 0 {
		return strings.TrimSpace(c.Links[0])
	}
	if c.HTML != "" {
		if href := anchorHref(c.HTML); href != "" {
			return href
		}
	}
	return bareURL.FindString(c.Text)
}

// anchorHref returns the href of the first <a> element in an HTML fragment.
func anchorHref(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					return strings.TrimSpace(attr.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if href := find(c); href != "" {
				return href
			}
		}
		return ""
	}
	return find(doc)
}

// CheckURL reports why raw is not a checkable http(s) URL, or "" when it is.
// The validator applies the same rule before any network call.
func CheckURL(raw string) string {
	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return "unparsable URL " + quote(raw)
	case u.Scheme != "http" && u.Scheme != "https":
		return "URL " + quote(raw) + " is not http(s)"
	case u.Host == "":
		return "URL " + quote(raw) + " has no host"
	}
	return ""
}

func quote(s string) string { return "\"" + s + "\"" }
