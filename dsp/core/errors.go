package core

import "errors"

var (
	// ErrConfiguration marks pre-flight failures: illegal transform
	// length, an empty frequency window, missing parameters. Nothing has
	// been read or written when it is returned.
	ErrConfiguration = errors.New("filterbank: configuration error")

	// ErrTransform marks a Transform Engine failure during a run.
	ErrTransform = errors.New("filterbank: transform engine error")
)
