package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/promptkit/internal/config"
	"git.home.luguber.info/inful/promptkit/internal/docstore"
	"git.home.luguber.info/inful/promptkit/internal/foundation/errors"
	"git.home.luguber.info/inful/promptkit/internal/links"
)

// TopicsCmd implements the 'topics' command.
type TopicsCmd struct {
	Format   string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Category string `help:"Only list documents of this category"`
}

// Topic is one corpus document in the topic index.
type Topic struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Summary  string `json:"summary,omitempty"`
	URL      string `json:"url"`
	Excluded bool   `json:"excluded,omitempty"`
}

// SampleTopic is one configured sample application.
type SampleTopic struct {
	config.Sample
	URL string `json:"url"`
}

// TopicIndex lists documents in category order followed by samples.
type TopicIndex struct {
	Title   string        `json:"title"`
	Topics  []Topic       `json:"topics"`
	Samples []SampleTopic `json:"samples,omitempty"`
}

func (t *TopicsCmd) Run(g *Global, root *CLI) error {
	p, err := loadProject(root)
	if err != nil {
		return err
	}
	store, err := p.openStore()
	if err != nil {
		return err
	}
	if t.Category != "" {
		if _, ok := p.cfg.Category(t.Category); !ok {
			return errors.NotFoundError("unknown category").WithContext("category", t.Category).Build()
		}
	}

	index := BuildTopicIndex(p.cfg, store, p.resolver(), t.Category)
	if t.Format == "json" {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(index)
	}
	printTopics(g.out(), index)
	return nil
}

// BuildTopicIndex collects the topic index. An empty category lists every document.
func BuildTopicIndex(cfg *config.Config, store *docstore.Store, resolver *links.Resolver, category string) TopicIndex {
	index := TopicIndex{Title: cfg.Title, Topics: []Topic{}}
	for _, e := range store.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		summary, ok := cfg.Summary(e.Path)
		if !ok {
			summary = firstHeading(e.Content)
		}
		index.Topics = append(index.Topics, Topic{
			Path:     e.Path,
			Category: e.Category,
			Summary:  summary,
			URL:      resolver.URL(e.Path),
			Excluded: e.Excluded,
		})
	}
	if category == "" {
		for _, s := range cfg.Samples {
			index.Samples = append(index.Samples, SampleTopic{Sample: s, URL: resolver.RepoPrefix() + strings.TrimPrefix(s.Path, "/")})
		}
	}
	return index
}

func printTopics(out io.Writer, index TopicIndex) {
	if index.Title != "" {
		fmt.Fprintln(out, index.Title)
	}
	current := ""
	for _, t := range index.Topics {
		if t.Category != current {
			current = t.Category
			fmt.Fprintf(out, "\n[%s]\n", current)
		}
		line := "  " + t.Path
		if t.Summary != "" {
			line += " - " + t.Summary
		}
		if t.Excluded {
			line += " (excluded)"
		}
		fmt.Fprintln(out, line)
	}
	if len(index.Samples) > 0 {
		fmt.Fprintln(out, "\nSamples:")
		for _, s := range index.Samples {
			fmt.Fprintf(out, "  %s (%s)", s.Name, s.URL)
			if len(s.Tags) > 0 {
				fmt.Fprintf(out, " [%s]", strings.Join(s.Tags, ", "))
			}
			fmt.Fprintln(out)
			if s.Summary != "" {
				fmt.Fprintf(out, "    %s\n", s.Summary)
			}
		}
	}
}

// firstHeading returns the text of the first ATX heading outside fenced code.
func firstHeading(content string) string {
	sc := bufio.NewScanner(strings.NewReader(content))
	inFence := false
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || !strings.HasPrefix(line, "#") {
			continue
		}
		text := strings.TrimLeft(line, "#")
		if text == "" || text[0] != ' ' {
			continue
		}
		return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(text), "#"))
	}
	return ""
}
