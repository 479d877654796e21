package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/starford/casedesk/internal/models"
)

// domainTags are attached whenever any of their markers occurs in the
// lower-cased description.
var domainTags = []struct {
	tag     string
	markers []string
}{
	{"Electrical", []string{"electric"}},
	{"Fall Hazard", []string{"fall"}},
	{"Scaffolding", []string{"scaffold"}},
	{"Mining", []string{"mining", "mine"}},
	{"Construction", []string{"construction"}},
	{"PPE", []string{"ppe", "protection equipment"}},
}

var fallbackWord = regexp.MustCompile(`\p{L}{4,}`)

// AutoTag suggests tags for a description. Every matched domain tag is
// returned first, then keyword tags fill the list up to n. The result holds
// at most max(n, matched domain tags) entries, so it is longer than n only
// when more than n domain tags match.
func AutoTag(description string, n int) []string {
	if n < 1 {
		n = 1
	}
	text := strings.ToLower(description)

	var tags []string
	for _, d := range domainTags {
		for _, m := range d.markers {
			if strings.Contains(text, m) {
				tags = append(tags, d.tag)
				break
			}
		}
	}
	limit := max(n, len(tags))

	terms, err := topTerms(description, n)
	if err != nil {
		terms = fallbackTerms(text)
	}
	for _, t := range terms {
		if _, stop := tagStopTerms[t]; stop {
			continue
		}
		tags = append(tags, titleCase(t))
	}
	tags = dedupe(tags)
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

// AutoTagCases maps case ID to its suggested tags. Cases without a
// description are skipped.
func AutoTagCases(cases []models.Case, n int) map[string][]string {
	out := make(map[string][]string, len(cases))
	for _, c := range cases {
		if strings.TrimSpace(c.Description) == "" {
			continue
		}
		out[c.ID] = AutoTag(c.Description, n)
	}
	return out
}

// topTerms fits a single-document space capped at 2n terms and returns its
// n heaviest terms.
func topTerms(description string, n int) ([]string, error) {
	v := NewVectorizer(2 * n)
	rows, err := v.FitTransform([]string{description})
	if err != nil {
		return nil, err
	}
	terms := v.Terms()
	idx := make([]int, len(terms))
	for i := range idx {
		idx[i] = i
	}
	w := rows[0]
	sort.SliceStable(idx, func(a, b int) bool { return w[idx[a]] > w[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = terms[j]
	}
	return out, nil
}

func fallbackTerms(text string) []string {
	return dedupe(fallbackWord.FindAllString(text, -1))
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func titleCase(s string) string {
	r := []rune(s)
	prevLetter := false
	for i, c := range r {
		if unicode.IsLetter(c) {
			if !prevLetter {
				r[i] = unicode.ToUpper(c)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(r)
}
