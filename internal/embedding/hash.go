package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/phrazzld/lexis/internal/domain"
	"golang.org/x/crypto/blake2b"
)

// HashEmbedder produces deterministic vectors from character trigrams. It
// needs no network access, so words sharing spelling fragments come out
// similar while unrelated words land near orthogonal.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a HashEmbedder producing dims-dimensional vectors.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashEmbedder{dims: dims}
}

// Model implements Embedder.
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-%d", h.dims)
}

// Embed implements Embedder.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	word := domain.NormalizeWord(text)
	if word == "" {
		return nil, ErrEmptyText
	}

	padded := []rune("^" + word + "$")
	vec := make([]float32, h.dims)
	for i := 0; i+3 <= len(padded); i++ {
		sum := blake2b.Sum256([]byte(string(padded[i : i+3])))
		idx := binary.LittleEndian.Uint32(sum[:4]) % uint32(h.dims)
		sign := float32(1)
		if sum[4]&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
