package gemini

import (
	"context"
	"testing"

	"github.com/phrazzld/lexis/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeneratorLabelEdges(t *testing.T) {
	t.Parallel()
	fake := (&fakeModels{}).queue("```json\n" + `{"labels":[
		{"source":"Hot","target":"cold","label":" Antonym "},
		{"source":"sun","target":"star","label":"kind of"},
		{"source":"moon","target":"tide","label":"causes"},
		{"source":"cat","target":"dog","label":""}
	]}` + "\n```")
	g := NewGenerator(newClient(fake, testConfig(), nil), "label-model")

	labels, err := g.LabelEdges(context.Background(), []generation.EdgePair{
		{Source: "hot", Target: "cold"},
		{Source: "star", Target: "sun"},
		{Source: "cat", Target: "dog"},
	})
	require.NoError(t, err)
	assert.Equal(t, []generation.EdgeLabel{
		{Source: "hot", Target: "cold", Label: "antonym"},
		{Source: "sun", Target: "star", Label: "kind of"},
	}, labels)

	require.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "- hot -> cold")
	assert.Contains(t, fake.prompts[0], "- star -> sun")
	assert.Equal(t, []string{"label-model"}, fake.models)
}

func TestGeneratorLabelEdgesWithoutPairs(t *testing.T) {
	t.Parallel()
	fake := &fakeModels{}
	g := NewGenerator(newClient(fake, testConfig(), nil), "")

	labels, err := g.LabelEdges(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, labels)
	assert.Zero(t, fake.calls())
}

func TestGeneratorExample(t *testing.T) {
	t.Parallel()
	fake := (&fakeModels{}).queue(`{"sentence":"  The hot soup cooled in the cold air. "}`)
	g := NewGenerator(newClient(fake, testConfig(), nil), "")

	sentence, err := g.Example(context.Background(), "hot", "cold", "antonym")
	require.NoError(t, err)
	assert.Equal(t, "The hot soup cooled in the cold air.", sentence)
	assert.Contains(t, fake.prompts[0], `"hot"`)
	assert.Contains(t, fake.prompts[0], `related as "antonym"`)
	assert.Equal(t, []string{DefaultModel}, fake.models)
}

func TestGeneratorExampleRejectsEmptySentence(t *testing.T) {
	t.Parallel()
	fake := (&fakeModels{}).queue(`{"sentence":""}`)
	g := NewGenerator(newClient(fake, testConfig(), nil), "")

	_, err := g.Example(context.Background(), "a", "b", "")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGeneratorRelatedWords(t *testing.T) {
	t.Parallel()
	fake := (&fakeModels{}).queue(`{"words":["Bright","bright","lucid","","clear","vivid"]}`)
	g := NewGenerator(newClient(fake, testConfig(), nil), "")

	words, err := g.RelatedWords(context.Background(), "Lucid", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"bright", "clear", "vivid"}, words)
	assert.Contains(t, fake.prompts[0], "up to 3")
}

func TestGeneratorInvalidJSON(t *testing.T) {
	t.Parallel()
	fake := (&fakeModels{}).queue("not json")
	g := NewGenerator(newClient(fake, testConfig(), nil), "")

	_, err := g.RelatedWords(context.Background(), "word", 2)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestEmbedder(t *testing.T) {
	t.Parallel()
	fake := &fakeModels{embedFn: func(text string) (*genai.EmbedContentResponse, error) {
		return &genai.EmbedContentResponse{
			Embeddings: []*genai.ContentEmbedding{{Values: []float32{float32(len(text)), 1}}},
		}, nil
	}}
	e := NewEmbedder(newClient(fake, testConfig(), nil), "")

	vec, err := e.Embed(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)
	assert.Equal(t, "gemini:"+DefaultEmbeddingModel, e.Model())
}

func TestEmbedderEmptyResponse(t *testing.T) {
	t.Parallel()
	fake := &fakeModels{embedFn: func(string) (*genai.EmbedContentResponse, error) {
		return &genai.EmbedContentResponse{}, nil
	}}
	e := NewEmbedder(newClient(fake, testConfig(), nil), "m")

	_, err := e.Embed(context.Background(), "abc")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestStripFence(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence(` {"a":1} `))
}
