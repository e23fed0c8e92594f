package finapp

import (
	"log"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// matchThreshold is the fuzzy-match score (0-100) a candidate must exceed to
// be accepted when resolving a fund name against the catalog. A score of
// exactly 80 is rejected: a false binding would stick, since an existing
// identifier is never overwritten.
const matchThreshold = 80

// Resolver maps free-text fund names to catalog identifiers using an exact
// lower-cased lookup with a fuzzy-match fallback.
type Resolver struct {
	catalog Catalog
	keys    []string
}

// NewResolver builds a resolver over the given catalog.
func NewResolver(catalog Catalog) *Resolver {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	return &Resolver{catalog: catalog, keys: keys}
}

// Resolve returns the catalog identifier for a fund name. A miss is reported
// with ok=false and is never fatal: the instrument is persisted without an
// identifier and retried on a later import.
func (r *Resolver) Resolve(name string) (code string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if code, ok := r.catalog[key]; ok {
		return code, true
	}
	if len(r.keys) == 0 {
		return "", false
	}

	best, err := fuzzy.ExtractOne(key, r.keys)
	if err != nil || best == nil {
		log.Printf("no fuzzy match for %q: %v", name, err)
		return "", false
	}
	if best.Score > matchThreshold {
		log.Printf("fuzzy matched %q to %q with score %d", name, best.Match, best.Score)
		return r.catalog[best.Match], true
	}
	log.Printf("fund code not found for %q, best match %q scored %d", name, best.Match, best.Score)
	return "", false
}
