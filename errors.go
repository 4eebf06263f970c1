package fxscene

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned by setters and validators for values outside
	// their allowed range.
	ErrOutOfRange = errors.New("value out of range")

	// ErrTooManyOutputs is returned when every output index bit is taken.
	ErrTooManyOutputs = errors.New("too many outputs")

	// ErrFramePending is returned when an output is committed while the
	// previous frame still awaits presentation feedback.
	ErrFramePending = errors.New("frame pending presentation")

	// ErrContextLost is returned by renderers whose GPU context is gone.
	// The scene keeps no GPU state that must survive it; drop textures with
	// Scene.ResetTextures and install a new renderer.
	ErrContextLost = errors.New("renderer context lost")

	// ErrNoContent is returned when snapshotting a buffer node that shows
	// nothing.
	ErrNoContent = errors.New("node has no content")

	// ErrNoRenderer is returned when committing an output without a renderer.
	ErrNoRenderer = errors.New("output has no renderer")
)

// RangeError describes a value rejected by a range check.
type RangeError struct {
	Field    string
	Value    float64
	Min, Max float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be within [%g, %g], got %g", e.Field, e.Min, e.Max, e.Value)
}

// Unwrap returns ErrOutOfRange.
func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// ConfigError is a configuration value that was rejected.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config %s = %q: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
