// Package labels translates analysis keys, statuses and scores into the
// Spanish text shown to users.
package labels

import (
	_ "embed"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed labels.yaml
var labelsYAML []byte

// Band is a score range with its label.
type Band struct {
	Name  string  `yaml:"name" json:"name"`
	Label string  `yaml:"label" json:"label"`
	Min   float64 `yaml:"min" json:"min"`
	Color string  `yaml:"color" json:"color"`
}

// Catalog holds every label loaded from labels.yaml.
type Catalog struct {
	Fields        map[string]string `yaml:"fields"`
	Words         map[string]string `yaml:"words"`
	Nouns         []string          `yaml:"nouns"`
	Feminine      []string          `yaml:"feminine"`
	Statuses      map[string]string `yaml:"statuses"`
	StatusDetails map[string]string `yaml:"status_details"`
	Bands         []Band            `yaml:"bands"`

	nouns    map[string]bool
	feminine map[string]bool
}

var (
	catalog  = mustLoad()
	splitKey = regexp.MustCompile(`[_\s-]+`)
)

func mustLoad() *Catalog {
	c, err := Parse(labelsYAML)
	if err != nil {
		// Embedded file, only fails on a broken build.
		panic("failed to unmarshal embedded labels.yaml: " + err.Error())
	}
	return c
}

// Parse reads a label catalog in the labels.yaml format.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.nouns = make(map[string]bool, len(c.Nouns))
	for _, n := range c.Nouns {
		c.nouns[n] = true
	}
	c.feminine = make(map[string]bool, len(c.Feminine))
	for _, n := range c.Feminine {
		c.feminine[n] = true
	}
	return &c, nil
}

// Default returns the embedded catalog.
func Default() *Catalog {
	return catalog
}

// Field returns the Spanish label for a score key such as "skin_quality".
func Field(key string) string {
	return catalog.Field(key)
}

// Status returns the Spanish label for an analysis status.
func Status(status string) string {
	return catalog.Status(status)
}

// StatusDetail returns the sentence explaining an analysis status.
func StatusDetail(status string) string {
	return catalog.StatusDetails[status]
}

// ScoreBand returns the band a score falls in.
func ScoreBand(score float64) Band {
	return catalog.ScoreBand(score)
}

// Field returns the label for key. Known keys are translated directly.
// Other keys are translated word by word; a two-word key made of a noun
// and a descriptor is reordered the Spanish way ("nose_harmony" becomes
// "Armonía de la Nariz"). Words without translation are title-cased.
func (c *Catalog) Field(key string) string {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if label, ok := c.Fields[normalized]; ok {
		return label
	}

	title := cases.Title(language.Spanish)
	var words []string
	for _, w := range splitKey.Split(normalized, -1) {
		if w == "" {
			continue
		}
		if label, ok := c.Words[w]; ok {
			words = append(words, label)
		} else {
			words = append(words, title.String(w))
		}
	}

	if len(words) == 2 {
		first, second := words[0], words[1]
		firstNoun := c.nouns[strings.ToLower(first)]
		secondNoun := c.nouns[strings.ToLower(second)]
		switch {
		case firstNoun && !secondNoun:
			return second + " " + c.ofArticle(first) + " " + first
		case !firstNoun && secondNoun:
			return second + " " + first
		}
	}
	return strings.Join(words, " ")
}

// ofArticle returns "de la" for feminine nouns and "del" otherwise.
func (c *Catalog) ofArticle(noun string) string {
	if c.feminine[strings.ToLower(noun)] {
		return "de la"
	}
	return "del"
}

// Status returns the label for status, or status itself when unknown.
func (c *Catalog) Status(status string) string {
	if label, ok := c.Statuses[status]; ok {
		return label
	}
	return status
}

// ScoreBand returns the first band whose minimum the score reaches.
// Scores below every band get the last one.
func (c *Catalog) ScoreBand(score float64) Band {
	for _, b := range c.Bands {
		if score >= b.Min {
			return b
		}
	}
	if len(c.Bands) == 0 {
		return Band{}
	}
	return c.Bands[len(c.Bands)-1]
}
