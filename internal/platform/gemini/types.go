package gemini

import "github.com/phrazzld/lexis/internal/generation"

// labelsResponse is the JSON shape requested by label_edges.tmpl.
type labelsResponse struct {
	Labels []generation.EdgeLabel `json:"labels"`
}

type exampleResponse struct {
	Sentence string `json:"sentence"`
}

type relatedResponse struct {
	Words []string `json:"words"`
}
