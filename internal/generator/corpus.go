package generator

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/typerush/internal/model"
)

//go:embed corpus.yaml
var builtinCorpus []byte

// Corpus holds passages grouped by kind. Punctuation and number passages are
// mixed into the difficulty pools by Texts.
type Corpus struct {
	Easy        []string `yaml:"easy"`
	Medium      []string `yaml:"medium"`
	Hard        []string `yaml:"hard"`
	Punctuation []string `yaml:"punctuation"`
	Numbers     []string `yaml:"numbers"`
}

// Builtin returns the corpus shipped with the binary.
func Builtin() Corpus {
	c, err := ParseCorpus(builtinCorpus)
	if err != nil {
		panic(fmt.Sprintf("generator: invalid builtin corpus: %v", err))
	}
	return c
}

// LoadCorpus reads a YAML corpus file.
func LoadCorpus(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Corpus{}, fmt.Errorf("failed to read corpus: %w", err)
	}
	c, err := ParseCorpus(data)
	if err != nil {
		return Corpus{}, fmt.Errorf("failed to load corpus %s: %w", path, err)
	}
	return c, nil
}

// ParseCorpus decodes YAML and checks every difficulty has text.
func ParseCorpus(data []byte) (Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Corpus{}, fmt.Errorf("failed to parse corpus: %w", err)
	}
	c.Easy = clean(c.Easy)
	c.Medium = clean(c.Medium)
	c.Hard = clean(c.Hard)
	c.Punctuation = clean(c.Punctuation)
	c.Numbers = clean(c.Numbers)
	for _, d := range model.Difficulties {
		if len(c.Texts(d)) == 0 {
			return Corpus{}, fmt.Errorf("no texts for difficulty %s", d)
		}
	}
	return c, nil
}

// Texts returns the pool a passage is drawn from for d.
func (c Corpus) Texts(d model.Difficulty) []string {
	var pool []string
	switch d {
	case model.Easy:
		pool = append(pool, c.Easy...)
		pool = append(pool, head(c.Punctuation, 2)...)
	case model.Hard:
		pool = append(pool, c.Hard...)
		pool = append(pool, c.Punctuation...)
		pool = append(pool, c.Numbers...)
	default:
		pool = append(pool, c.Medium...)
		pool = append(pool, c.Punctuation...)
		pool = append(pool, head(c.Numbers, 2)...)
	}
	return pool
}

func head(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}

func clean(texts []string) []string {
	out := texts[:0]
	for _, text := range texts {
		text = strings.Join(strings.Fields(text), " ")
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}
