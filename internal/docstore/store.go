// Package docstore loads the documentation corpus into an immutable, ordered index of
// markdown documents grouped by category.
package docstore

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/frontmatter"
	"git.home.luguber.info/inful/promptkit/internal/logfields"
)

// RootCategory is the category of documents in unconfigured files at the corpus root.
const RootCategory = "."

// Entry is one markdown document. Entries are shared between concurrent builds and
// must not be modified.
type Entry struct {
	Path        string // logical, slash separated, relative to the corpus root
	Category    string
	Content     string // body with front matter removed
	Attribution string // front matter "source:" value
	Excluded    bool
	Fingerprint string
}

// Store is the read-only corpus index.
type Store struct {
	root       string
	entries    map[string]*Entry
	byCategory map[string][]*Entry
	categories []string
}

// Open walks root and indexes every markdown document. Symlinks are followed only
// when their target stays inside root.
func Open(root string, cfg *config.Config) (*Store, error) {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve corpus root").
			WithContext("root", root).Build()
	}
	resolvedRoot, err = filepath.Abs(resolvedRoot)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve corpus root").
			WithContext("root", root).Build()
	}

	assign := newCategorizer(cfg)

	s := &Store{
		root:       resolvedRoot,
		entries:    make(map[string]*Entry),
		byCategory: make(map[string][]*Entry),
	}

	walkErr := filepath.WalkDir(resolvedRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != resolvedRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdownFile(d.Name()) || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		rel, err := filepath.Rel(resolvedRoot, p)
		if err != nil {
			return err
		}
		logical := filepath.ToSlash(rel)

		target, ok := s.resolveInside(p)
		if !ok {
			slog.Warn("Skipping document outside corpus root", logfields.Path(logical))
			return nil
		}

		entry, err := loadEntry(target, logical, assign.categoryFor(logical), cfg)
		if err != nil {
			return err
		}
		s.entries[logical] = entry
		return nil
	})
	if walkErr != nil {
		return nil, errors.WrapError(walkErr, errors.CategoryFileSystem, "failed to index corpus").
			WithContext("root", root).Build()
	}

	s.index(cfg)
	slog.Debug("Corpus indexed", logfields.Path(root), logfields.Count(len(s.entries)))
	return s, nil
}

// resolveInside follows symlinks and reports whether the target is a regular file
// inside the store root.
func (s *Store) resolveInside(p string) (string, bool) {
	target, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(s.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return target, true
}

func loadEntry(file, logical, category string, cfg *config.Config) (*Entry, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	fm, body, had, err := frontmatter.Split(raw)
	if err != nil {
		slog.Warn("Ignoring malformed front matter", logfields.Path(logical), logfields.Error(err))
		fm, body, had = nil, raw, false
	}

	var attribution string
	if had {
		header, _, perr := frontmatter.Parse(raw)
		if perr != nil {
			slog.Warn("Ignoring unparsable front matter", logfields.Path(logical), logfields.Error(perr))
		} else {
			attribution = header.Source
		}
	}

	return &Entry{
		Path:        logical,
		Category:    category,
		Content:     string(body),
		Attribution: attribution,
		Excluded:    cfg.IsExcluded(logical),
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fm), "\n"), string(body)),
	}, nil
}

// index builds the per-category ordering: explicitly listed files first in listed
// order, then the remaining files lexically.
func (s *Store) index(cfg *config.Config) {
	grouped := make(map[string][]*Entry)
	for _, e := range s.entries {
		grouped[e.Category] = append(grouped[e.Category], e)
	}

	for _, cat := range cfg.Categories {
		docs := grouped[cat.Name]
		sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })

		ordered := make([]*Entry, 0, len(docs))
		listed := make(map[string]bool, len(cat.Files))
		for _, f := range cat.Files {
			logical := cat.LogicalPath(f.File)
			if e, ok := s.entries[logical]; ok && e.Category == cat.Name && !listed[logical] {
				ordered = append(ordered, e)
				listed[logical] = true
			}
		}
		for _, e := range docs {
			if !listed[e.Path] {
				ordered = append(ordered, e)
			}
		}
		s.byCategory[cat.Name] = ordered
		s.categories = append(s.categories, cat.Name)
		delete(grouped, cat.Name)
	}

	extra := make([]string, 0, len(grouped))
	for name := range grouped {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		docs := grouped[name]
		sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
		s.byCategory[name] = docs
		s.categories = append(s.categories, name)
	}
}

// Root returns the resolved corpus root directory.
func (s *Store) Root() string { return s.root }

// List returns the ordered documents of a category. The slice must not be modified.
func (s *Store) List(category string) []*Entry {
	return s.byCategory[category]
}

// Count returns the number of documents in a category.
func (s *Store) Count(category string) int {
	return len(s.byCategory[category])
}

// Categories returns configured categories in priority order followed by
// unconfigured ones sorted by name.
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Len returns the number of indexed documents.
func (s *Store) Len() int { return len(s.entries) }

// Get looks up a document by logical path.
func (s *Store) Get(logical string) (*Entry, error) {
	clean := path.Clean(filepath.ToSlash(logical))
	if path.IsAbs(clean) || filepath.IsAbs(logical) || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, errors.NotFoundError("document path outside corpus").WithContext("path", logical).Build()
	}
	e, ok := s.entries[clean]
	if !ok {
		return nil, errors.NotFoundError("document not found").WithContext("path", logical).Build()
	}
	return e, nil
}

// Entries returns every document in category order then list order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.entries))
	for _, name := range s.categories {
		out = append(out, s.byCategory[name]...)
	}
	return out
}

// categorizer maps logical paths to categories. A file listed in a category's
// files wins, then the configured category with the longest dir containing the
// file. A dir of "." only holds files at the corpus root.
type categorizer struct {
	listed map[string]string
	dirs   map[string]string
	names  map[string]bool
}

func newCategorizer(cfg *config.Config) *categorizer {
	c := &categorizer{
		listed: make(map[string]string),
		dirs:   make(map[string]string, len(cfg.Categories)),
		names:  make(map[string]bool, len(cfg.Categories)),
	}
	for _, cat := range cfg.Categories {
		c.names[cat.Name] = true
		if _, ok := c.dirs[path.Clean(cat.Dir)]; !ok {
			c.dirs[path.Clean(cat.Dir)] = cat.Name
		}
		for _, f := range cat.Files {
			if _, ok := c.listed[cat.LogicalPath(f.File)]; !ok {
				c.listed[cat.LogicalPath(f.File)] = cat.Name
			}
		}
	}
	return c
}

func (c *categorizer) categoryFor(logical string) string {
	if name, ok := c.listed[logical]; ok {
		return name
	}
	dir := path.Dir(logical)
	if dir == "." {
		if name, ok := c.dirs["."]; ok {
			return name
		}
		return RootCategory
	}
	for d := dir; d != "."; d = path.Dir(d) {
		if name, ok := c.dirs[d]; ok {
			return name
		}
	}

	// Unconfigured directories never share a name with a configured category.
	first, _, _ := strings.Cut(dir, "/")
	if c.names[first] {
		return RootCategory + "/" + first
	}
	return first
}

func isMarkdownFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}
