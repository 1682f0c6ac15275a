package scheduler

import "github.com/phrazzld/lexis/internal/domain"

// ChainOrder orders cards by a greedy nearest-neighbour chain: starting from
// the first card with a vector, it repeatedly appends the unvisited card
// most similar to the chain's current end. Ties keep the original order.
// Cards without a vector follow the chain in their original order.
func ChainOrder(cards []*domain.Card, vectors map[string][]float32, sim func(a, b []float32) float64) []*domain.Card {
	var chained, rest []*domain.Card
	for _, c := range cards {
		if _, ok := vectors[domain.NormalizeWord(c.Word)]; ok {
			chained = append(chained, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(chained) == 0 {
		return append([]*domain.Card(nil), cards...)
	}

	ordered := make([]*domain.Card, 0, len(cards))
	visited := make([]bool, len(chained))
	end := 0
	visited[0] = true
	ordered = append(ordered, chained[0])

	for len(ordered) < len(chained) {
		endVec := vectors[domain.NormalizeWord(chained[end].Word)]
		best, bestSim := -1, 0.0
		for i, c := range chained {
			if visited[i] {
				continue
			}
			s := sim(endVec, vectors[domain.NormalizeWord(c.Word)])
			if best < 0 || s > bestSim {
				best, bestSim = i, s
			}
		}
		visited[best] = true
		ordered = append(ordered, chained[best])
		end = best
	}

	return append(ordered, rest...)
}
