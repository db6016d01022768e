// Package assemble turns a planned list of inclusion actions into a single prompt
// document and writes it to disk.
package assemble

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/links"
	"git.home.luguber.info/inful/promptkit/internal/planner"
)

// Result is the assembled output of one variant and mode.
type Result struct {
	Variant         string
	Mode            config.Mode
	Content         string
	SizeBytes       int
	Lines           int
	EstimatedTokens int
	// Documents lists the entries emitted in full or by reference, in output order.
	Documents []*docstore.Entry
}

// Assembler renders action lists. It holds no mutable state and may be shared by
// concurrent builds.
type Assembler struct {
	cfg      *config.Config
	resolver *links.Resolver
}

// New creates an Assembler.
func New(cfg *config.Config, resolver *links.Resolver) *Assembler {
	return &Assembler{cfg: cfg, resolver: resolver}
}

// Assemble renders the actions of one variant and mode.
func (a *Assembler) Assemble(spec config.VariantSpec, actions []planner.Action) (*Result, error) {
	subst := newSubstituter(a.cfg.Placeholders.For(spec.Mode), a.resolver, spec.Mode)

	var b strings.Builder
	a.writeHeader(&b, spec.Mode)

	res := &Result{Variant: spec.Name, Mode: spec.Mode}
	lastCategory := ""
	for i, action := range actions {
		if action.Entry == nil {
			return nil, errors.AssemblyError("action without document").
				WithContext("variant", spec.Key()).
				WithContext("index", i).
				Build()
		}
		if action.Kind == planner.Skip {
			continue
		}
		if action.Entry.Category != lastCategory {
			lastCategory = action.Entry.Category
			b.WriteString("\n## ")
			b.WriteString(a.heading(lastCategory))
			b.WriteString("\n")
		}

		switch action.Kind {
		case planner.Full:
			body, err := rewriteLinks(action.Entry, a.resolver, spec.Mode)
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryAssembly, "failed to rewrite links").
					Fatal().WithContext("path", action.Entry.Path).Build()
			}
			a.writeFull(&b, action.Entry, subst.apply(body), spec.Mode)
		case planner.Reference:
			if strings.TrimSpace(action.Summary) == "" {
				return nil, errors.AssemblyError("reference action without summary").
					WithContext("variant", spec.Key()).
					WithContext("path", action.Entry.Path).
					Build()
			}
			a.writeReference(&b, action.Entry, subst.apply(action.Summary), spec.Mode)
		}
		res.Documents = append(res.Documents, action.Entry)
	}

	res.Content = b.String()
	res.SizeBytes = len(res.Content)
	res.Lines = CountLines(res.Content)
	res.EstimatedTokens = EstimateTokens(res.Content, a.cfg.Tokens.CharsPerToken)
	return res, nil
}

func (a *Assembler) writeHeader(b *strings.Builder, mode config.Mode) {
	b.WriteString("# ")
	b.WriteString(a.cfg.Title)
	b.WriteString("\n\n")
	if a.cfg.Description != "" {
		b.WriteString(a.cfg.Description)
		b.WriteString("\n\n")
	}
	source := a.cfg.DocsRoot
	if mode == config.ModeOnline && a.cfg.Links.RepoURL != "" {
		source = a.cfg.Links.RepoURL
	}
	b.WriteString("Source: ")
	b.WriteString(source)
	b.WriteString("\n\n---\n")
}

func (a *Assembler) writeFull(b *strings.Builder, e *docstore.Entry, body string, mode config.Mode) {
	b.WriteString("\n<!-- Source: ")
	b.WriteString(a.resolver.Path(e.Path, mode))
	b.WriteString(" -->\n")
	if e.Attribution != "" {
		b.WriteString("<!-- Attribution: ")
		b.WriteString(e.Attribution)
		b.WriteString(" -->\n")
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
}

func (a *Assembler) writeReference(b *strings.Builder, e *docstore.Entry, summary string, mode config.Mode) {
	b.WriteString("\n<!-- Reference: ")
	b.WriteString(e.Path)
	b.WriteString(" -->\n")
	b.WriteString(strings.TrimSpace(summary))
	b.WriteString("\n\nSee: [")
	b.WriteString(e.Path)
	b.WriteString("](")
	b.WriteString(a.resolver.Path(e.Path, mode))
	b.WriteString(")\n")
}

func (a *Assembler) heading(category string) string {
	if category == docstore.RootCategory {
		return "Overview"
	}
	// A Caser carries transform state and is not safe for concurrent use.
	return cases.Title(language.English).String(strings.NewReplacer("_", " ", "-", " ").Replace(category))
}
