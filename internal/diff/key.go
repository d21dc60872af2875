package diff

import (
	"strings"

	"recdiff/internal/domain"
)

// BuildKey derives the identity of a record from its key fields: canonical
// values in keyFields order joined with domain.KeySeparator. A missing key
// field contributes the empty string, so two records both missing it agree
// on that component.
func BuildKey(r *domain.Record, keyFields []string) string {
	if len(keyFields) == 1 {
		v, _ := r.Get(keyFields[0])
		return Canonical(v)
	}
	var b strings.Builder
	for i, f := range keyFields {
		if i > 0 {
			b.WriteString(domain.KeySeparator)
		}
		v, _ := r.Get(f)
		b.WriteString(Canonical(v))
	}
	return b.String()
}
