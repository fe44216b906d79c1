package idgen

import "github.com/google/uuid"

// NewFunc produces globally unique identifiers. It is a variable so tests
// can substitute deterministic ids.
var NewFunc = func() string { return uuid.New().String() }

// New returns a fresh correlation id.
func New() string { return NewFunc() }
