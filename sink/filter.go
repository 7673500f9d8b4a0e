package sink

import (
	"fmt"

	"github.com/gobwas/glob"
	lru "github.com/hashicorp/golang-lru/v2"
)

// memoSize bounds the per-filter match cache. Key cardinality in practice is
// small (device ids, tenant ids), so a modest cache absorbs nearly all lookups.
const memoSize = 4096

// Filter decides whether a record is published at all. Filtered records are
// dropped before buffering and never reach the destination.
type Filter interface {
	Match(key []byte) bool
}

// AllowAll matches every record.
type AllowAll struct{}

func (AllowAll) Match([]byte) bool { return true }

// KeyFilter matches record keys against glob patterns. Keyless records always
// pass, since there is nothing to match on. Match results are memoized in a
// small LRU because the same keys repeat heavily within a stream.
type KeyFilter struct {
	globs []glob.Glob
	memo  *lru.Cache[string, bool]
}

// NewKeyFilter compiles the given patterns. An empty pattern list matches
// everything.
func NewKeyFilter(patterns []string) (Filter, error) {
	if len(patterns) == 0 {
		return AllowAll{}, nil
	}

	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid key pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	memo, err := lru.New[string, bool](memoSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter cache: %w", err)
	}

	return &KeyFilter{globs: globs, memo: memo}, nil
}

// Match returns true if the key matches any configured pattern.
func (f *KeyFilter) Match(key []byte) bool {
	if key == nil {
		return true
	}

	k := string(key)
	if matched, ok := f.memo.Get(k); ok {
		return matched
	}

	matched := false
	for _, g := range f.globs {
		if g.Match(k) {
			matched = true
			break
		}
	}
	f.memo.Add(k, matched)
	return matched
}
