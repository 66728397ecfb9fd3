// Package generator builds typing text for a difficulty.
package generator

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/verte-zerg/typerush/internal/model"
)

// Source produces the text for a new session. Implementations never return
// an empty string.
type Source interface {
	Generate(d model.Difficulty) string
}

// DefaultPunct is appended to words in word-list mode.
var DefaultPunct = []rune(".,;:!?")

// wordMode describes a word-list text per difficulty.
type wordMode struct {
	count    int
	capsPct  float64
	punctPct float64
}

var wordModes = map[model.Difficulty]wordMode{
	model.Easy:   {count: 20},
	model.Medium: {count: 30, capsPct: 0.3, punctPct: 0.2},
	model.Hard:   {count: 40, capsPct: 0.5, punctPct: 0.5},
}

// Generator produces randomized typing text, either a passage from a corpus
// or a sequence of words from a word list.
type Generator struct {
	rnd    *rand.Rand
	corpus Corpus
	words  []string
	punct  []rune
}

// New returns a Generator over the builtin corpus seeded with the current time.
func New() *Generator {
	return NewCorpus(Builtin())
}

// NewCorpus returns a Generator drawing passages from c.
func NewCorpus(c Corpus) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano())), corpus: c}
}

// NewWordList returns a Generator building texts from words. The builtin
// corpus is used if words is empty.
func NewWordList(words []string, punct []rune) *Generator {
	g := New()
	g.words = words
	g.punct = punct
	if len(g.punct) == 0 {
		g.punct = DefaultPunct
	}
	return g
}

// Seed makes subsequent output deterministic.
func (g *Generator) Seed(seed int64) *Generator {
	g.rnd = rand.New(rand.NewSource(seed))
	return g
}

// Generate returns the text for one session at difficulty d.
func (g *Generator) Generate(d model.Difficulty) string {
	if len(g.words) > 0 {
		mode, ok := wordModes[d]
		if !ok {
			mode = wordModes[model.Medium]
		}
		return strings.Join(g.Words(g.words, mode.count, mode.capsPct, mode.punctPct, g.punct), " ")
	}
	pool := g.corpus.Texts(d)
	if len(pool) == 0 {
		pool = Builtin().Texts(d)
	}
	return pool[g.rnd.Intn(len(pool))]
}

// Words selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Words(words []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := words[g.rnd.Intn(len(words))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
