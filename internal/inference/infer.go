// Package inference proposes key fields for a table from its column names,
// the key reported by the source format, an optional user keyword and an
// optional sample of records.
package inference

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"recdiff/internal/diff"
	"recdiff/internal/domain"
)

// keywordMatchBonus is added to the score of a field that contains the
// keyword, so any containing field outranks every non-containing one of
// similar length.
const keywordMatchBonus = 100

// InferKeys proposes the key fields of a table. See InferKeysFromSample.
func InferKeys(schema, detected []string, keyword string) []string {
	return InferKeysFromSample(schema, detected, keyword, nil)
}

// InferKeysFromSample proposes the key fields of a table, in this order:
//
//  1. a non-blank keyword selects the single best scoring field;
//  2. otherwise the detected key is used as declared;
//  3. otherwise the first field named id, uuid, code or ending in _id,
//     then the first field containing "id", then the first field whose
//     values are present and unique across the sample, then the first field.
//
// An empty schema yields an empty list.
func InferKeysFromSample(schema, detected []string, keyword string, sample []*domain.Record) []string {
	if len(schema) == 0 {
		return []string{}
	}
	if kw := strings.ToLower(strings.TrimSpace(keyword)); kw != "" {
		return []string{bestKeywordMatch(schema, kw)}
	}
	if len(detected) > 0 {
		out := make([]string, len(detected))
		copy(out, detected)
		return out
	}
	for _, f := range schema {
		if IsIdentifierName(f) {
			return []string{f}
		}
	}
	for _, f := range schema {
		if strings.Contains(strings.ToLower(f), "id") {
			return []string{f}
		}
	}
	if len(sample) > 0 {
		for _, f := range schema {
			if uniqueIn(sample, f) {
				return []string{f}
			}
		}
	}
	return []string{schema[0]}
}

// Score rates field against a lower-cased keyword: a bonus when the field
// contains the keyword, minus the edit distance between the two.
func Score(field, keyword string) int {
	f := strings.ToLower(field)
	score := 0
	if strings.Contains(f, keyword) {
		score += keywordMatchBonus
	}
	return score - Levenshtein(f, keyword)
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// IsIdentifierName reports whether a column name is a conventional
// identifier: id, uuid, code (any case) or a name ending in _id.
func IsIdentifierName(name string) bool {
	n := strings.ToLower(name)
	switch n {
	case "id", "uuid", "code":
		return true
	}
	return strings.HasSuffix(n, "_id")
}

func bestKeywordMatch(schema []string, keyword string) string {
	best, bestScore := schema[0], Score(schema[0], keyword)
	for _, f := range schema[1:] {
		if s := Score(f, keyword); s > bestScore {
			best, bestScore = f, s
		}
	}
	return best
}

func uniqueIn(sample []*domain.Record, field string) bool {
	seen := make(map[string]struct{}, len(sample))
	for _, r := range sample {
		v, ok := r.Get(field)
		if !ok {
			return false
		}
		s := diff.Canonical(v)
		if s == "" {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}
