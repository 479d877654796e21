package search

import (
	"sort"

	"github.com/starford/casedesk/internal/models"
)

// Vocabulary caps for the two ranking modes.
const (
	QueryMaxFeatures   = 1000
	SimilarMaxFeatures = 500
)

// Options tunes a ranking call.
type Options struct {
	Scope        Scope
	MinRelevance float64
	MaxResults   int
}

// Result is one ranked case.
type Result struct {
	Case        models.Case `json:"case"`
	Score       float64     `json:"score"`
	MatchedText string      `json:"matched_text"`
}

const matchedTextLen = 200

// Search ranks cases against a free-text query. A vectorization failure is
// returned together with an empty result list.
func Search(cases []models.Case, query string, opts Options) ([]Result, error) {
	corpus := buildCorpus(cases, func(c models.Case) string { return Document(c, opts.Scope) })
	if len(corpus) == 0 {
		return []Result{}, nil
	}
	docs := make([]string, len(corpus))
	for i, e := range corpus {
		docs[i] = e.doc
	}

	v := NewVectorizer(QueryMaxFeatures)
	rows, err := v.FitTransform(docs)
	if err != nil {
		return []Result{}, err
	}
	return rank(corpus, rows, v.Transform(query), opts), nil
}

// FindSimilar ranks the other cases by similarity to ref. The reference case
// shares the fitted space with the candidates but never appears in the output.
func FindSimilar(cases []models.Case, ref models.Case, opts Options) ([]Result, error) {
	candidates := make([]models.Case, 0, len(cases))
	for _, c := range cases {
		if c.ID != ref.ID {
			candidates = append(candidates, c)
		}
	}
	corpus := buildCorpus(candidates, similarityDocument)
	if len(corpus) == 0 {
		return []Result{}, nil
	}
	docs := make([]string, 0, len(corpus)+1)
	for _, e := range corpus {
		docs = append(docs, e.doc)
	}
	docs = append(docs, similarityDocument(ref))

	v := NewVectorizer(SimilarMaxFeatures)
	rows, err := v.FitTransform(docs)
	if err != nil {
		return []Result{}, err
	}
	last := len(rows) - 1
	return rank(corpus, rows[:last], rows[last], opts), nil
}

func rank(corpus []entry, rows []Vector, target Vector, opts Options) []Result {
	out := []Result{}
	for i, e := range corpus {
		score := Cosine(rows[i], target)
		if score < opts.MinRelevance {
			continue
		}
		out = append(out, Result{Case: e.c, Score: score, MatchedText: excerpt(e.doc)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return out
}

func excerpt(doc string) string {
	r := []rune(doc)
	if len(r) <= matchedTextLen {
		return doc
	}
	return string(r[:matchedTextLen]) + "..."
}
