// Package generation defines the boundary to the language-model service that
// enriches semantic graphs: relation labels for edges, example sentences for
// a pair of words, and related words for a single word. Implementations may
// fail partially; callers treat missing results as empty.
package generation
