package refine

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"scrollback/internal/textutil"
)

// Correction rewrites every case-insensitive match of Pattern. Replace may
// refer to capture groups as $1.
type Correction struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
	re      *regexp.Regexp
}

func (c *Correction) compile() error {
	re, err := regexp.Compile("(?i)" + c.Pattern)
	if err != nil {
		return fmt.Errorf("compile %q: %w", c.Pattern, err)
	}
	c.re = re
	return nil
}

// builtinCorrections are applied before any user-supplied table.
var builtinCorrections = mustCompile([]Correction{
	{Pattern: `70üTübé`, Replace: "YouTube"},
	{Pattern: `YouType`, Replace: "YouTube"},
})

func mustCompile(list []Correction) []Correction {
	for i := range list {
		if err := list[i].compile(); err != nil {
			panic(err)
		}
	}
	return list
}

// LoadCorrections reads a YAML list of {pattern, replace} entries.
func LoadCorrections(path string) ([]Correction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCorrections(data)
}

// ParseCorrections decodes and compiles a YAML correction table.
func ParseCorrections(data []byte) ([]Correction, error) {
	var list []Correction
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse corrections: %w", err)
	}
	for i := range list {
		if strings.TrimSpace(list[i].Pattern) == "" {
			return nil, fmt.Errorf("parse corrections: entry %d has an empty pattern", i+1)
		}
		if err := list[i].compile(); err != nil {
			return nil, fmt.Errorf("parse corrections: entry %d: %w", i+1, err)
		}
	}
	return list, nil
}

// Normalizer applies NFKC, trimming and the correction tables.
type Normalizer struct {
	corrections []Correction
}

// NewNormalizer appends extra after the built-in corrections.
func NewNormalizer(extra []Correction) *Normalizer {
	all := make([]Correction, 0, len(builtinCorrections)+len(extra))
	all = append(all, builtinCorrections...)
	all = append(all, extra...)
	return &Normalizer{corrections: all}
}

// Normalize returns the cleaned form of text.
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.TrimSpace(text)
	for _, c := range n.corrections {
		text = c.re.ReplaceAllString(text, c.Replace)
	}
	return textutil.StripControl(text)
}
