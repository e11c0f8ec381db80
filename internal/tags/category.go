package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryBucket is one category and the tags placed in it.
type CategoryBucket struct {
	Name Category `json:"name"`
	Tags []string `json:"tags"`
}

// Categories is an ordered partition of tags. It encodes as a JSON object
// keyed by category name with keys in bucket order.
type Categories []CategoryBucket

// Get returns the tags in the named bucket, or nil if there is no such bucket.
func (c Categories) Get(name Category) []string {
	for _, b := range c {
		if b.Name == name {
			return b.Tags
		}
	}
	return nil
}

// Total is the number of tags across all buckets.
func (c Categories) Total() int {
	n := 0
	for _, b := range c {
		n += len(b.Tags)
	}
	return n
}

func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(b.Name))
		if err != nil {
			return nil, err
		}
		tags := b.Tags
		if tags == nil {
			tags = []string{}
		}
		val, err := json.Marshal(tags)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Categories) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}

	out := Categories{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key, got %v", tok)
		}
		var tags []string
		if err := dec.Decode(&tags); err != nil {
			return fmt.Errorf("categories: bucket %q: %w", name, err)
		}
		if tags == nil {
			tags = []string{}
		}
		out = append(out, CategoryBucket{Name: Category(name), Tags: tags})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

// Categorize places every tag into the first rule whose keyword contains it
// or is contained by it, falling back to Other. Every rule bucket and Other
// are present in the result, in rule order. Duplicate tags are placed once.
func Categorize(tagSet []string, rules []CategoryRule) Categories {
	out := make(Categories, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, CategoryBucket{Name: r.Name, Tags: []string{}})
	}
	out = append(out, CategoryBucket{Name: CategoryOther, Tags: []string{}})
	other := len(out) - 1

	seen := make(map[string]struct{}, len(tagSet))
	for _, tag := range tagSet {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}

		bucket := other
		for i, r := range rules {
			if matchesAny(tag, r.Keywords) {
				bucket = i
				break
			}
		}
		out[bucket].Tags = append(out[bucket].Tags, tag)
	}
	return out
}

func matchesAny(tag string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(tag, kw) || strings.Contains(kw, tag) {
			return true
		}
	}
	return false
}

// DistinctTags returns every tag used by items, in first-seen order.
func DistinctTags(items []TaggedItem) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range items {
		for _, tag := range item.Tags {
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
