package bridge

import "errors"

var (
	// ErrInvalidInput is returned for arguments that do not match the channel schema.
	ErrInvalidInput = errors.New("Invalid input")

	// ErrUnknownChannel is returned for channels outside the catalog.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrNoWindow is returned by window-bound channels before the window exists.
	ErrNoWindow = errors.New("No main window")

	// ErrUnsupportedURL is returned by shell:openExternal for non-web schemes.
	ErrUnsupportedURL = errors.New("unsupported url scheme")

	// ErrNotSupported is returned when the host lacks a capability.
	ErrNotSupported = errors.New("not supported")
)
