package types

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned for an action that is illegal in the
// current phase. The state is left untouched.
var ErrInvalidAction = errors.New("invalid action")

// ErrNoVocabulary is returned when the lexicon and every fallback tier
// produce an empty candidate pool.
var ErrNoVocabulary = errors.New("no vocabulary available")

// GenerationError reports map constraints that cannot be satisfied.
type GenerationError struct {
	Width   int
	Height  int
	Enemies int
	Items   int
	Reason  string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("map generation %dx%d (enemies=%d items=%d): %s",
		e.Width, e.Height, e.Enemies, e.Items, e.Reason)
}

// CorruptSaveError reports a save file that cannot be resumed.
type CorruptSaveError struct {
	Err error
}

func (e *CorruptSaveError) Error() string {
	return "corrupt save state: " + e.Err.Error()
}

func (e *CorruptSaveError) Unwrap() error { return e.Err }
