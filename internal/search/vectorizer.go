package search

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// ErrEmptyVocabulary is returned by Fit when no term survives tokenisation
// and stop-word removal.
var ErrEmptyVocabulary = errors.New("search: empty vocabulary; documents contain only stop words")

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// tokenize lower-cases text and returns its runs of two or more letters,
// digits or underscores in any script, stop words removed.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := englishStopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Vector is a dense TF-IDF row over a fitted vocabulary.
type Vector []float64

// Vectorizer is a fitted TF-IDF vector space. The zero value is unfitted.
type Vectorizer struct {
	// MaxFeatures caps the vocabulary at the most frequent terms. Zero means no cap.
	MaxFeatures int

	terms []string
	index map[string]int
	idf   []float64
}

// NewVectorizer returns an unfitted vectorizer capped at maxFeatures terms.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Terms returns the fitted vocabulary in alphabetical order.
func (v *Vectorizer) Terms() []string {
	return v.terms
}

// Fit learns the vocabulary and inverse document frequencies of docs.
func (v *Vectorizer) Fit(docs []string) error {
	_, err := v.FitTransform(docs)
	return err
}

// FitTransform fits docs and returns one L2-normalised row per document.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	counts := make([]map[string]int, len(docs))
	total := make(map[string]int)
	df := make(map[string]int)
	for i, d := range docs {
		c := make(map[string]int)
		for _, t := range tokenize(d) {
			c[t]++
		}
		for t, n := range c {
			total[t] += n
			df[t]++
		}
		counts[i] = c
	}
	if len(total) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(total))
	for t := range total {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		// Most frequent first; alphabetical order breaks ties.
		sort.SliceStable(terms, func(i, j int) bool { return total[terms[i]] > total[terms[j]] })
		terms = terms[:v.MaxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(docs))
	v.terms = terms
	v.index = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, t := range terms {
		v.index[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	rows := make([]Vector, len(docs))
	for i, c := range counts {
		rows[i] = v.weigh(c)
	}
	return rows, nil
}

// Transform projects text into the fitted space. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) Vector {
	c := make(map[string]int)
	for _, t := range tokenize(text) {
		c[t]++
	}
	return v.weigh(c)
}

func (v *Vectorizer) weigh(counts map[string]int) Vector {
	row := make(Vector, len(v.terms))
	for t, n := range counts {
		if i, ok := v.index[t]; ok {
			row[i] = float64(n) * v.idf[i]
		}
	}
	if norm := row.norm(); norm > 0 {
		for i := range row {
			row[i] /= norm
		}
	}
	return row
}

func (x Vector) norm() float64 {
	var s float64
	for _, f := range x {
		s += f * f
	}
	return math.Sqrt(s)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b Vector) float64 {
	na, nb := a.norm(), b.norm()
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		if i < len(b) {
			dot += a[i] * b[i]
		}
	}
	return dot / (na * nb)
}
