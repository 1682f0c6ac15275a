package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/phrazzld/lexis/internal/generation"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

type labelPrompt struct {
	Pairs []generation.EdgePair
}

type examplePrompt struct {
	WordA, WordB, Relation string
}

type relatedPrompt struct {
	Word string
	N    int
}

func renderPrompt(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return buf.String(), nil
}
