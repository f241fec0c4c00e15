// Package outfit composes outfits from a wardrobe. It asks a language model
// first and falls back to a local random pick whenever the remote path
// cannot produce a usable answer.
package outfit

import (
	"errors"

	"github.com/raine/virtual-closet/internal/wardrobe"
)

// Outfit is one suggested combination, at most one item per category.
type Outfit struct {
	Items     map[wardrobe.Category]wardrobe.Item `json:"items"`
	Reasoning string                              `json:"reasoning"`
	Name      string                              `json:"name"`
}

// Source tells where an outfit came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Result is what Generate returns. FallbackReason is nil for remote results
// and records the failure that triggered the fallback otherwise.
type Result struct {
	Outfit         Outfit `json:"outfit"`
	Source         Source `json:"source"`
	FallbackReason error  `json:"-"`
}

// Message is the user-facing status line for a result.
func (r Result) Message() string {
	if r.Source == SourceFallback {
		return "Used a simplified outfit suggestion."
	}
	return "Outfit generated successfully!"
}

// Reconciliation failures. Any of them fails the whole reply.
var (
	ErrNoJSONFound      = errors.New("no JSON object in reply")
	ErrMalformedJSON    = errors.New("malformed JSON in reply")
	ErrMissingOutfitKey = errors.New("reply has no outfit object")
)

// Pipeline failures that skip the remote call entirely.
var (
	ErrEmptyCatalog = errors.New("wardrobe has no items to choose from")
	ErrNoCompleter  = errors.New("no completion backend configured")
)

const (
	defaultReasoning = "These items complement each other well."
	defaultName      = "AI Generated Outfit"
	defaultIntent    = "Create a casual everyday outfit"
)
