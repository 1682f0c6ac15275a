// Package deck reads vocabulary decks from YAML.
//
// A deck lists study groups explicitly:
//
//	name: Weather
//	groups:
//	  - label: Sky
//	    words:
//	      - word: cloud
//	        meaning: visible mass of water droplets
//	      - sun: the star at the centre of the solar system
//
// or lists words flat and lets GroupSize split them in order:
//
//	group_size: 5
//	words:
//	  - rain: water falling from clouds
//
// Each word is either a mapping with word/meaning (and optional phonetic,
// example and notes) or a single "word: meaning" pair.
package deck

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/service"
	"gopkg.in/yaml.v3"
)

// DefaultGroupSize splits flat word lists when the deck sets no size.
const DefaultGroupSize = 8

var (
	// ErrEmptyDeck is returned for a deck without words.
	ErrEmptyDeck = errors.New("deck has no words")

	// ErrInvalidDeck wraps structural and validation errors.
	ErrInvalidDeck = errors.New("invalid deck")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Entry is one word of a deck.
type Entry struct {
	Word     string `yaml:"word" validate:"required,max=100"`
	Meaning  string `yaml:"meaning" validate:"required,max=1000"`
	Phonetic string `yaml:"phonetic,omitempty"`
	Example  string `yaml:"example,omitempty"`
	Notes    string `yaml:"notes,omitempty"`

	line int
}

var entryFields = map[string]struct{}{
	"word": {}, "meaning": {}, "phonetic": {}, "example": {}, "notes": {},
}

// UnmarshalYAML accepts both entry forms.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	e.line = node.Line
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: word entry must be a mapping", node.Line)
	}

	if len(node.Content) == 2 && node.Content[1].Kind == yaml.ScalarNode {
		if _, known := entryFields[node.Content[0].Value]; !known {
			e.Word = node.Content[0].Value
			e.Meaning = node.Content[1].Value
			return nil
		}
	}

	// node.Decode does not inherit the decoder's KnownFields setting.
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if _, known := entryFields[key.Value]; !known {
			return fmt.Errorf("line %d: field %s not found in word entry", key.Line, key.Value)
		}
	}

	type plain Entry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Entry(p)
	e.line = node.Line
	return nil
}

// Group is an explicit study group.
type Group struct {
	Label string  `yaml:"label" validate:"max=200"`
	Words []Entry `yaml:"words" validate:"required,min=1,dive"`
}

// Deck is a parsed deck file.
type Deck struct {
	Name      string  `yaml:"name"`
	GroupSize int     `yaml:"group_size" validate:"gte=0,lte=100"`
	Groups    []Group `yaml:"groups" validate:"dive"`
	Words     []Entry `yaml:"words" validate:"dive"`
}

// Parse decodes and validates a deck.
func Parse(r io.Reader) (*Deck, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Deck
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDeck
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}
	d.trim()

	if len(d.Groups) == 0 && len(d.Words) == 0 {
		return nil, ErrEmptyDeck
	}
	if err := validate.Struct(&d); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDeck, describe(&d, err))
	}
	return &d, nil
}

// ParseBytes parses a deck held in memory.
func ParseBytes(b []byte) (*Deck, error) {
	return Parse(bytes.NewReader(b))
}

// Load parses the deck file at path.
func Load(path string) (*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Inputs converts the deck into import input: explicit groups first, then
// the flat word list split into groups of GroupSize.
func (d *Deck) Inputs() []service.GroupInput {
	out := make([]service.GroupInput, 0, len(d.Groups)+1)
	for _, g := range d.Groups {
		out = append(out, service.GroupInput{Label: g.Label, Cards: cardInputs(g.Words)})
	}

	size := d.GroupSize
	if size <= 0 {
		size = DefaultGroupSize
	}
	for i := 0; i < len(d.Words); i += size {
		end := min(i+size, len(d.Words))
		label := fmt.Sprintf("%s %d", strings.TrimSpace(d.Name), i/size+1)
		out = append(out, service.GroupInput{Label: strings.TrimSpace(label), Cards: cardInputs(d.Words[i:end])})
	}
	return out
}

// WordCount returns the number of entries in the deck.
func (d *Deck) WordCount() int {
	n := len(d.Words)
	for _, g := range d.Groups {
		n += len(g.Words)
	}
	return n
}

func (d *Deck) trim() {
	for i := range d.Groups {
		d.Groups[i].Label = strings.TrimSpace(d.Groups[i].Label)
		trimEntries(d.Groups[i].Words)
	}
	trimEntries(d.Words)
}

func trimEntries(entries []Entry) {
	for i := range entries {
		e := &entries[i]
		e.Word = strings.TrimSpace(e.Word)
		e.Meaning = strings.TrimSpace(e.Meaning)
		e.Phonetic = strings.TrimSpace(e.Phonetic)
		e.Example = strings.TrimSpace(e.Example)
		e.Notes = strings.TrimSpace(e.Notes)
	}
}

func cardInputs(entries []Entry) []service.CardInput {
	out := make([]service.CardInput, len(entries))
	for i, e := range entries {
		out[i] = service.CardInput{
			Word:    e.Word,
			Meaning: e.Meaning,
			Enrichment: domain.Enrichment{
				Phonetic: e.Phonetic,
				Example:  e.Example,
				Notes:    e.Notes,
			},
		}
	}
	return out
}

// describe reports the first validation failure with its source line when
// the failing value is an entry.
func describe(d *Deck, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	msg := fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	if line := entryLine(d, fe.Namespace()); line > 0 {
		msg = fmt.Sprintf("line %d: %s", line, msg)
	}
	return msg
}

// entryLine finds the line of the entry named by a validator namespace
// such as "Deck.Groups[1].Words[0].Meaning".
func entryLine(d *Deck, ns string) int {
	var g, w int
	if _, err := fmt.Sscanf(ns, "Deck.Groups[%d].Words[%d]", &g, &w); err == nil {
		if g < len(d.Groups) && w < len(d.Groups[g].Words) {
			return d.Groups[g].Words[w].line
		}
		return 0
	}
	if _, err := fmt.Sscanf(ns, "Deck.Words[%d]", &w); err == nil && w < len(d.Words) {
		return d.Words[w].line
	}
	return 0
}
