package cache

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/phrazzld/lexis/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// Key prefixes.
const (
	PrefixLabels  = "labels"
	PrefixRelated = "related"
	PrefixExample = "example"
	PrefixVector  = "vector"
)

// LabelsKey is the key of the relation labels generated for edges leaving word.
func LabelsKey(word string) string {
	return PrefixLabels + ":" + domain.NormalizeWord(word)
}

// RelatedKey is the key of the related words generated for word.
func RelatedKey(word string) string {
	return PrefixRelated + ":" + domain.NormalizeWord(word)
}

// VectorKey is the key of the embedding of word under model.
func VectorKey(model, word string) string {
	return PrefixVector + ":" + model + ":" + domain.NormalizeWord(word)
}

// ExampleKey is the key of the example text for an edge. It does not depend
// on edge direction.
func ExampleKey(a, b, relation string) string {
	return WordSetKey(PrefixExample, a, b) + ":" + strings.ToLower(strings.TrimSpace(relation))
}

// WordSetKey hashes an unordered set of words into a key. Words are
// normalized and deduplicated first.
func WordSetKey(prefix string, words ...string) string {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := domain.NormalizeWord(w); n != "" {
			set[n] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(set))
	for w := range set {
		sorted = append(sorted, w)
	}
	sort.Strings(sorted)

	sum := blake2b.Sum256([]byte(strings.Join(sorted, "\x00")))
	return prefix + ":" + hex.EncodeToString(sum[:16])
}
