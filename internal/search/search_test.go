package search

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/casedesk/internal/models"
)

func caseWith(id, description string) models.Case {
	return models.Case{ID: id, CaseNumber: "N-" + id, Description: description, Employer: "Acme", Worker: "Pat"}
}

func corpus() []models.Case {
	return []models.Case{
		caseWith("a", "electrical fire hazard scaffolding"),
		caseWith("b", "unrelated paperwork filing error"),
		caseWith("c", "worker fell from scaffolding on construction site"),
		caseWith("d", "electrical shock while repairing panel"),
		caseWith("e", "forklift collision in warehouse"),
		caseWith("f", "scaffolding collapse injured two workers"),
	}
}

func ids(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Case.ID
	}
	return out
}

func TestDocumentScopes(t *testing.T) {
	c := models.Case{
		Description:  "fall",
		Employer:     "Acme",
		Worker:       "Pat",
		Timelines:    []models.TimelineEvent{{Description: "site visit"}},
		Reports:      []models.Report{{Content: "final report"}},
		Evidence:     []models.EvidenceItem{{Description: "harness"}},
		BriefingNote: "brief",
	}
	tests := []struct {
		scope Scope
		want  string
	}{
		{AllFields, "fall Acme Pat site visit final report harness brief"},
		{DescriptionOnly, "fall"},
		{ReportsOnly, "final report"},
		{TimelineEvents, "site visit"},
		{EvidenceOnly, "harness"},
	}
	for _, tt := range tests {
		t.Run(string(tt.scope), func(t *testing.T) {
			assert.Equal(t, tt.want, Document(c, tt.scope))
		})
	}
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, AllFields, s)

	s, err = ParseScope("Timeline")
	require.NoError(t, err)
	assert.Equal(t, TimelineEvents, s)

	_, err = ParseScope("photos")
	assert.Error(t, err)
}

func TestTokenizeUnicode(t *testing.T) {
	assert.Equal(t, []string{"société", "générale", "chute", "2025"},
		tokenize("Société Générale: chute, 2025 à"))
	assert.Equal(t, []string{"ᐃᖃᓗᐃᑦ", "shaft_3"}, tokenize("ᐃᖃᓗᐃᑦ shaft_3"))
}

func TestVectorizerIDFAndNorm(t *testing.T) {
	v := NewVectorizer(0)
	rows, err := v.FitTransform([]string{"apple banana", "apple cherry"})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, v.Terms())

	for _, r := range rows {
		assert.InDelta(t, 1.0, r.norm(), 1e-9)
	}
	// apple occurs in both docs: idf 1; banana in one: ln(3/2)+1.
	ratio := rows[0][1] / rows[0][0]
	assert.InDelta(t, math.Log(1.5)+1, ratio, 1e-9)
	assert.Zero(t, rows[0][2])
}

func TestVectorizerMaxFeatures(t *testing.T) {
	v := NewVectorizer(2)
	_, err := v.FitTransform([]string{"zebra zebra zebra alpha beta", "beta gamma"})
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "zebra"}, v.Terms())
}

func TestVectorizerEmptyVocabulary(t *testing.T) {
	_, err := NewVectorizer(10).FitTransform([]string{"the and of", "a"})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestCosineZeroVector(t *testing.T) {
	assert.Zero(t, Cosine(Vector{0, 0}, Vector{1, 0}))
	assert.InDelta(t, 1.0, Cosine(Vector{1, 1}, Vector{2, 2}), 1e-9)
}

func TestSearchExample(t *testing.T) {
	cases := []models.Case{
		caseWith("a", "electrical fire hazard scaffolding"),
		caseWith("b", "unrelated paperwork filing error"),
	}
	res, err := Search(cases, "electrical scaffolding", Options{Scope: DescriptionOnly, MinRelevance: 0.3, MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(res))
}

func TestSearchThresholdAndOrder(t *testing.T) {
	for _, threshold := range []float64{0, 0.05, 0.2, 0.5, 0.9, 1} {
		t.Run(fmt.Sprint(threshold), func(t *testing.T) {
			res, err := Search(corpus(), "electrical scaffolding collapse", Options{Scope: DescriptionOnly, MinRelevance: threshold, MaxResults: 100})
			require.NoError(t, err)
			for i, r := range res {
				assert.GreaterOrEqual(t, r.Score, threshold)
				if i > 0 {
					assert.GreaterOrEqual(t, res[i-1].Score, r.Score)
				}
			}
		})
	}
}

func TestSearchPrefixStable(t *testing.T) {
	opts := Options{Scope: AllFields, MinRelevance: 0, MaxResults: 100}
	full, err := Search(corpus(), "scaffolding electrical worker", opts)
	require.NoError(t, err)
	for k := 1; k <= len(full); k++ {
		opts.MaxResults = k
		part, err := Search(corpus(), "scaffolding electrical worker", opts)
		require.NoError(t, err)
		assert.Equal(t, ids(full[:k]), ids(part))
	}
}

func TestSearchExactDescription(t *testing.T) {
	res, err := Search(corpus(), "forklift collision in warehouse", Options{Scope: DescriptionOnly, MaxResults: 1})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "e", res[0].Case.ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestSearchNoOverlapFiltered(t *testing.T) {
	res, err := Search(corpus(), "xylophone", Options{Scope: DescriptionOnly, MinRelevance: 0.01, MaxResults: 10})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSearchSingleCaseCorpus(t *testing.T) {
	res, err := Search([]models.Case{caseWith("x", "ladder slipped")}, "ladder", Options{Scope: DescriptionOnly, MinRelevance: 0.1, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(res))
}

func TestSearchSkipsBlankDocuments(t *testing.T) {
	cases := []models.Case{caseWith("x", "   "), caseWith("y", "ladder slipped")}
	res, err := Search(cases, "ladder", Options{Scope: DescriptionOnly, MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, ids(res))
}

func TestSearchVectorizationFailure(t *testing.T) {
	res, err := Search([]models.Case{caseWith("x", "the of and")}, "anything", Options{Scope: DescriptionOnly})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
	assert.NotNil(t, res)
	assert.Empty(t, res)
}

func TestFindSimilarExcludesReference(t *testing.T) {
	cases := corpus()
	for _, ref := range cases {
		t.Run(ref.ID, func(t *testing.T) {
			res, err := FindSimilar(cases, ref, Options{MinRelevance: 0, MaxResults: 100})
			require.NoError(t, err)
			assert.NotContains(t, ids(res), ref.ID)
			for i := 1; i < len(res); i++ {
				assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
			}
		})
	}
}

func TestFindSimilarRanksRelatedFirst(t *testing.T) {
	cases := corpus()
	res, err := FindSimilar(cases, cases[5], Options{MinRelevance: 0.1, MaxResults: 3})
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Contains(t, []string{"a", "c"}, res[0].Case.ID)
}

func TestFindSimilarOnlyReference(t *testing.T) {
	c := caseWith("solo", "scaffolding")
	res, err := FindSimilar([]models.Case{c}, c, Options{MaxResults: 5})
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestAutoTagIncludesDomainTags(t *testing.T) {
	for n := 1; n <= 10; n++ {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			tags := AutoTag("Worker fell from scaffolding during electrical maintenance", n)
			assert.Contains(t, tags, "Scaffolding")
			assert.Contains(t, tags, "Electrical")
			assert.NotContains(t, tags, "Worker")
		})
	}
}

func TestAutoTagLimitAndDedupe(t *testing.T) {
	tags := AutoTag("Forklift forklift collision warehouse racking loading dock", 3)
	assert.Len(t, tags, 3)
	assert.Equal(t, "Forklift", tags[0])

	seen := map[string]bool{}
	for _, tag := range tags {
		assert.False(t, seen[tag], "duplicate tag %q", tag)
		seen[tag] = true
	}
}

func TestAutoTagBound(t *testing.T) {
	const desc = "Worker took a fall from scaffolding during electrical maintenance near conveyor"
	tags := AutoTag(desc, 1)
	assert.Equal(t, []string{"Electrical", "Fall Hazard", "Scaffolding"}, tags)

	tags = AutoTag(desc, 4)
	require.Len(t, tags, 4)
	assert.Equal(t, []string{"Electrical", "Fall Hazard", "Scaffolding"}, tags[:3])

	tags = AutoTag("Forklift collision in warehouse", 2)
	assert.Len(t, tags, 2)
}

func TestAutoTagFallback(t *testing.T) {
	// Every token is a stop word, so the vectorizer has nothing to fit.
	tags := AutoTag("whereas therefore nevertheless", 2)
	assert.Equal(t, []string{"Whereas", "Therefore"}, tags)
}

func TestAutoTagCasesSkipsEmpty(t *testing.T) {
	got := AutoTagCases([]models.Case{caseWith("a", "PPE not worn near mine shaft"), caseWith("b", "")}, 5)
	require.Contains(t, got, "a")
	assert.NotContains(t, got, "b")
	assert.Contains(t, got["a"], "PPE")
	assert.Contains(t, got["a"], "Mining")
}
