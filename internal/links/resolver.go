// Package links maps logical corpus paths to the link form used by each output mode.
package links

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/promptkit/internal/config"
)

// Resolver renders logical document paths as absolute repository URLs (online) or
// leaves them as logical paths (offline).
type Resolver struct {
	Template string // supports {repo}, {ref} and {path}
	Raw      string // asset template, same tokens
	RepoURL  string
	Ref      string
	DocsRoot string // repository path of the corpus root
}

// New builds a resolver from the links configuration. ref overrides the configured
// ref, which lets callers pass a resolved "auto" value.
func New(cfg *config.Config, ref string) *Resolver {
	if ref == "" {
		ref = cfg.Links.Ref
	}
	return &Resolver{
		Template: cfg.Links.URLTemplate,
		Raw:      cfg.Links.RawTemplate,
		RepoURL:  strings.TrimSuffix(cfg.Links.RepoURL, "/"),
		Ref:      ref,
		DocsRoot: cfg.DocsRoot,
	}
}

// RepoPath returns the repository-relative path of a logical document.
func (r *Resolver) RepoPath(logical string) string {
	root := strings.Trim(r.DocsRoot, "/")
	if root == "" || root == "." {
		return path.Clean(logical)
	}
	return path.Join(root, logical)
}

// URL returns the absolute URL of a logical path.
func (r *Resolver) URL(logical string) string {
	return r.expand(r.Template, r.RepoPath(logical))
}

// AssetURL returns the absolute URL used for embedded assets.
func (r *Resolver) AssetURL(logical string) string {
	tmpl := r.Raw
	if tmpl == "" {
		tmpl = r.Template
	}
	return r.expand(tmpl, r.RepoPath(logical))
}

// Path returns the link for a logical path in the given mode.
func (r *Resolver) Path(logical string, mode config.Mode) string {
	if mode == config.ModeOnline {
		return r.URL(logical)
	}
	return logical
}

// Prefix returns the absolute location of the corpus root, ending in a slash.
func (r *Resolver) Prefix() string {
	return r.expand(r.Template, r.rootDir())
}

// AssetPrefix is Prefix for the asset template.
func (r *Resolver) AssetPrefix() string {
	tmpl := r.Raw
	if tmpl == "" {
		tmpl = r.Template
	}
	return r.expand(tmpl, r.rootDir())
}

// RepoPrefix returns the absolute location of the repository root, ending in a slash.
func (r *Resolver) RepoPrefix() string {
	return r.expand(r.Template, "")
}

func (r *Resolver) rootDir() string {
	root := r.RepoPath("")
	if root == "." {
		return ""
	}
	return root + "/"
}

// LogicalPath inverts URL. It reports false when u was not produced by this resolver
// or points outside the corpus.
func (r *Resolver) LogicalPath(u string) (string, bool) {
	before, after, ok := strings.Cut(r.Template, "{path}")
	if !ok {
		return "", false
	}
	prefix := r.replaceTokens(before)
	suffix := r.replaceTokens(after)
	if !strings.HasPrefix(u, prefix) || !strings.HasSuffix(u, suffix) || len(u) < len(prefix)+len(suffix) {
		return "", false
	}
	escaped := u[len(prefix) : len(u)-len(suffix)]
	repoPath, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}

	root := strings.Trim(r.DocsRoot, "/")
	if root == "" || root == "." {
		return repoPath, true
	}
	logical, found := strings.CutPrefix(repoPath, root+"/")
	return logical, found
}

func (r *Resolver) expand(tmpl, repoPath string) string {
	escaped := (&url.URL{Path: repoPath}).EscapedPath()
	return strings.ReplaceAll(r.replaceTokens(tmpl), "{path}", escaped)
}

func (r *Resolver) replaceTokens(tmpl string) string {
	return strings.NewReplacer("{repo}", r.RepoURL, "{ref}", r.Ref).Replace(tmpl)
}
