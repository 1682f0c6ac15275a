package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/lexis/internal/generation"
	"google.golang.org/genai"
)

// DefaultModel is used when no generation model is configured.
const DefaultModel = "gemini-2.0-flash"

// Generator implements generation.Generator with Gemini.
type Generator struct {
	client *Client
	model  string
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator that uses model through client.
func NewGenerator(client *Client, model string) *Generator {
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}
}

// LabelEdges implements generation.Generator. Labels for pairs that were
// not asked about, in either direction, are discarded.
func (g *Generator) LabelEdges(ctx context.Context, pairs []generation.EdgePair) ([]generation.EdgeLabel, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	var out labelsResponse
	if err := g.generateJSON(ctx, "label_edges", "label_edges.tmpl", labelPrompt{Pairs: pairs}, &out); err != nil {
		return nil, err
	}

	asked := make(map[generation.EdgePair]struct{}, len(pairs))
	for _, p := range pairs {
		asked[normalizePair(p)] = struct{}{}
	}
	labels := make([]generation.EdgeLabel, 0, len(out.Labels))
	for _, l := range out.Labels {
		label := generation.NormalizeLabel(l.Label)
		if label == "" {
			continue
		}
		pair := normalizePair(generation.EdgePair{Source: l.Source, Target: l.Target})
		_, forward := asked[pair]
		_, reverse := asked[generation.EdgePair{Source: pair.Target, Target: pair.Source}]
		if !forward && !reverse {
			continue
		}
		labels = append(labels, generation.EdgeLabel{Source: pair.Source, Target: pair.Target, Label: label})
	}
	return labels, nil
}

// Example implements generation.Generator.
func (g *Generator) Example(ctx context.Context, wordA, wordB, relation string) (string, error) {
	var out exampleResponse
	data := examplePrompt{WordA: wordA, WordB: wordB, Relation: relation}
	if err := g.generateJSON(ctx, "example", "example.tmpl", data, &out); err != nil {
		return "", err
	}
	sentence := strings.TrimSpace(out.Sentence)
	if sentence == "" {
		return "", fmt.Errorf("%w: empty sentence", generation.ErrInvalidResponse)
	}
	return sentence, nil
}

// RelatedWords implements generation.Generator.
func (g *Generator) RelatedWords(ctx context.Context, word string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	var out relatedResponse
	if err := g.generateJSON(ctx, "related_words", "related_words.tmpl", relatedPrompt{Word: word, N: n}, &out); err != nil {
		return nil, err
	}

	self := strings.ToLower(strings.TrimSpace(word))
	seen := make(map[string]struct{}, len(out.Words))
	words := make([]string, 0, n)
	for _, w := range out.Words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || w == self {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
		if len(words) == n {
			break
		}
	}
	return words, nil
}

func (g *Generator) generateJSON(ctx context.Context, op, tmpl string, data, out any) error {
	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return err
	}

	text, err := g.client.generateText(ctx, op, g.model, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripFence(text)), out); err != nil {
		g.client.logger.WarnContext(ctx, "unparseable gemini response",
			slog.String("operation", op),
			slog.Int("length", len(text)))
		return fmt.Errorf("%w: %s: %v", generation.ErrInvalidResponse, op, err)
	}
	return nil
}

// stripFence removes a markdown code fence the model sometimes wraps JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizePair(p generation.EdgePair) generation.EdgePair {
	return generation.EdgePair{
		Source: strings.ToLower(strings.TrimSpace(p.Source)),
		Target: strings.ToLower(strings.TrimSpace(p.Target)),
	}
}
