package tags

import (
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// MaxContentTags caps the number of content-based suggestions.
const MaxContentTags = 10

// Classifier suggests tags for free text by phrase matching against a topic
// table followed by a list of phrasing heuristics.
type Classifier struct {
	// Match mutates automaton state, so calls are serialised.
	mu      sync.Mutex
	matcher *ahocorasick.Matcher

	rules   []Topic // topics followed by heuristics
	phrases []string
	owners  [][]int // phrase index -> rule indexes
}

// NewClassifier builds a classifier from ordered topic and heuristic tables.
// Phrases shared by several rules are matched once and credited to each.
func NewClassifier(topics, heuristics []Topic) *Classifier {
	c := &Classifier{
		rules: make([]Topic, 0, len(topics)+len(heuristics)),
	}
	c.rules = append(c.rules, topics...)
	c.rules = append(c.rules, heuristics...)

	index := make(map[string]int)
	for ri, rule := range c.rules {
		for _, phrase := range rule.Phrases {
			phrase = strings.ToLower(phrase)
			if phrase == "" {
				continue
			}
			pi, ok := index[phrase]
			if !ok {
				pi = len(c.phrases)
				index[phrase] = pi
				c.phrases = append(c.phrases, phrase)
				c.owners = append(c.owners, nil)
			}
			c.owners[pi] = append(c.owners[pi], ri)
		}
	}

	if len(c.phrases) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.phrases)
	}
	return c
}

// Classify returns at most MaxContentTags tags for the given title and body,
// topics first in table order, then heuristics in their order.
func (c *Classifier) Classify(title, body string) []string {
	result := make([]string, 0, MaxContentTags)
	if c.matcher == nil {
		return result
	}

	text := strings.ToLower(title + " " + body)

	c.mu.Lock()
	hits := c.matcher.Match([]byte(text))
	c.mu.Unlock()

	matched := make([]bool, len(c.rules))
	for _, hit := range hits {
		if hit < 0 || hit >= len(c.owners) {
			continue
		}
		for _, ri := range c.owners[hit] {
			matched[ri] = true
		}
	}

	seen := make(map[string]struct{}, len(c.rules))
	for ri, ok := range matched {
		if !ok {
			continue
		}
		tag := c.rules[ri].Tag
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	if len(result) > MaxContentTags {
		result = result[:MaxContentTags]
	}
	return result
}

var defaultClassifier = NewClassifier(DefaultTopics, DefaultHeuristics)

// ExtractFromContent classifies text with the default tables.
func ExtractFromContent(title, body string) []string {
	return defaultClassifier.Classify(title, body)
}
