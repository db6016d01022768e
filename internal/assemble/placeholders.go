package assemble

import (
	"regexp"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/links"
)

// Recognized placeholder tokens.
const (
	TokenAssetPrefix  = "ASSET_PREFIX"
	TokenDocsPrefix   = "DOCS_PREFIX"
	TokenDocsSuffix   = "DOCS_SUFFIX"
	TokenGithubPrefix = "GITHUB_PREFIX"
	TokenWidthCaption = "WIDTH_CAPTION"
)

var placeholderRE = regexp.MustCompile(`\{\{([A-Z_]+)(?::([^:}]*)(?::([^}]*))?)?\}\}`)

type substituter struct {
	values map[string]string
	mode   config.Mode
}

func newSubstituter(overrides config.PlaceholderValues, resolver *links.Resolver, mode config.Mode) *substituter {
	values := map[string]string{
		TokenAssetPrefix:  "",
		TokenDocsPrefix:   "",
		TokenDocsSuffix:   ".md",
		TokenGithubPrefix: "",
	}
	if mode == config.ModeOnline {
		values[TokenAssetPrefix] = resolver.AssetPrefix()
		values[TokenDocsPrefix] = resolver.Prefix()
		values[TokenGithubPrefix] = resolver.RepoPrefix()
	}

	for token, override := range map[string]*string{
		TokenAssetPrefix:  overrides.AssetPrefix,
		TokenDocsPrefix:   overrides.DocsPrefix,
		TokenDocsSuffix:   overrides.DocsSuffix,
		TokenGithubPrefix: overrides.GithubPrefix,
	} {
		if override != nil {
			values[token] = *override
		}
	}
	return &substituter{values: values, mode: mode}
}

// apply replaces recognized tokens. Anything else in double braces is kept verbatim.
func (s *substituter) apply(text string) string {
	return placeholderRE.ReplaceAllStringFunc(text, func(match string) string {
		m := placeholderRE.FindStringSubmatch(match)
		name := m[1]
		if name == TokenWidthCaption {
			if m[3] == "" && m[2] == "" {
				return match
			}
			return s.widthCaption(m[2], m[3])
		}
		if len(m[0]) != len(name)+4 {
			return match
		}
		if v, ok := s.values[name]; ok {
			return v
		}
		return match
	})
}

// widthCaption renders an image caption. Online output carries a width attribute
// for the preceding image; offline output keeps only the caption.
func (s *substituter) widthCaption(width, caption string) string {
	if s.mode == config.ModeOnline {
		return "{width=" + width + "}\n*" + caption + "*"
	}
	return "*" + caption + "*"
}
