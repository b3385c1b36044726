package types

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a lookup for a movie, user record, or stored row
// that does not exist. Callers classify with errors.Is and wrap with
// context at each boundary.
var ErrNotFound = errors.New("not found")

// AmbiguousTitleError reports a title lookup that matched more than one
// movie exactly (case-insensitive). It carries the candidates so callers
// can present them for disambiguation.
type AmbiguousTitleError struct {
	Title      string
	Candidates []MovieSummary
}

func (e *AmbiguousTitleError) Error() string {
	return fmt.Sprintf("title %q matches %d movies", e.Title, len(e.Candidates))
}
