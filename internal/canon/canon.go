// Package canon maps the many spellings of an item found across sales,
// shipping and purchasing exports onto one canonical name.
package canon

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dictionary is the YAML form of the item naming rules.
type Dictionary struct {
	Aliases  map[string]string `yaml:"aliases"`
	Patterns []PatternRule     `yaml:"patterns"`
}

// PatternRule rewrites any name matching Pattern (case-insensitive) to Canonical.
type PatternRule struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`
}

type compiledRule struct {
	re        *regexp.Regexp
	canonical string
}

// Canonicalizer applies a Dictionary. It is safe for concurrent use.
type Canonicalizer struct {
	exact  map[string]string
	folded map[string]string
	rules  []compiledRule
}

var spaceFolder = strings.NewReplacer("\u00a0", " ", "\u3000", " ", "\t", " ")

// New compiles the dictionary.
func New(dict Dictionary) (*Canonicalizer, error) {
	c := &Canonicalizer{
		exact:  make(map[string]string, len(dict.Aliases)),
		folded: make(map[string]string, len(dict.Aliases)),
	}
	for from, to := range dict.Aliases {
		from = clean(from)
		to = clean(to)
		if from == "" || to == "" {
			continue
		}
		c.exact[from] = to
		c.folded[strings.ToUpper(from)] = to
	}
	for i, rule := range dict.Patterns {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %d %q: %w", i, rule.Pattern, err)
		}
		c.rules = append(c.rules, compiledRule{re: re, canonical: clean(rule.Canonical)})
	}
	return c, nil
}

// Load reads a YAML dictionary from path.
func Load(path string) (*Canonicalizer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read item dictionary: %w", err)
	}
	var dict Dictionary
	if err := yaml.Unmarshal(b, &dict); err != nil {
		return nil, fmt.Errorf("parse item dictionary %s: %w", path, err)
	}
	return New(dict)
}

// Canonical returns the display name for raw. Unknown names come back trimmed.
func (c *Canonicalizer) Canonical(raw string) string {
	name := clean(raw)
	if name == "" || c == nil {
		return name
	}
	if to, ok := c.exact[name]; ok {
		return to
	}
	if to, ok := c.folded[strings.ToUpper(name)]; ok {
		return to
	}
	for _, rule := range c.rules {
		if rule.re.MatchString(name) {
			if to, ok := c.exact[rule.canonical]; ok {
				return to
			}
			return rule.canonical
		}
	}
	return name
}

// Key is the ledger key for raw: its canonical name upper-cased.
func (c *Canonicalizer) Key(raw string) string {
	return strings.ToUpper(c.Canonical(raw))
}

// clean folds exotic spaces and collapses runs of whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(spaceFolder.Replace(s)), " ")
}
