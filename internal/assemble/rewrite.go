package assemble

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/markdown"
)

// rewriteLinks resolves relative link destinations of e against its directory and
// renders them for mode. Destinations leaving the corpus are kept as written.
func rewriteLinks(e *docstore.Entry, resolver *links.Resolver, mode config.Mode) (string, error) {
	body := []byte(e.Content)
	var edits []markdown.Edit
	for _, d := range markdown.Destinations(body) {
		replacement, ok := resolveDestination(e.Path, d, resolver, mode)
		if !ok || replacement == d.Value {
			continue
		}
		edits = append(edits, markdown.Edit{Start: d.Start, End: d.End, Replacement: []byte(replacement)})
	}
	if len(edits) == 0 {
		return e.Content, nil
	}
	out, err := markdown.ApplyEdits(body, edits)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func resolveDestination(docPath string, d markdown.Destination, resolver *links.Resolver, mode config.Mode) (string, bool) {
	v := d.Value
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "/") || strings.Contains(v, "{{") {
		return "", false
	}
	u, err := url.Parse(v)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" || u.Path == "" {
		return "", false
	}

	target := path.Join(path.Dir(docPath), u.Path)
	if target == "." || target == ".." || strings.HasPrefix(target, "../") {
		return "", false
	}

	var b strings.Builder
	switch {
	case mode == config.ModeOffline:
		b.WriteString((&url.URL{Path: target}).EscapedPath())
	case d.Kind == markdown.DestinationImage:
		b.WriteString(resolver.AssetURL(target))
	default:
		b.WriteString(resolver.URL(target))
	}
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.EscapedFragment())
	}
	return b.String(), true
}
