package kiosk

import "errors"

// Recoverable failures. None of them ends a session: each becomes a spoken
// clarification or a repeat of the last prompt.
var (
	// ErrUnknownItem is returned when a referenced menu entry is missing.
	ErrUnknownItem = errors.New("kiosk: unknown item")

	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("kiosk: cart is empty")

	// ErrUnrecognizedSpeech is returned when no rule matched.
	ErrUnrecognizedSpeech = errors.New("kiosk: unrecognized speech")

	// ErrUpstream is returned when a menu, chat or speech service fails.
	ErrUpstream = errors.New("kiosk: upstream service failure")

	// ErrInvalidTouch is returned by Engine.Touch for an unknown intent kind.
	ErrInvalidTouch = errors.New("kiosk: invalid touch intent")

	// ErrSessionNotFound is returned by the registry for unknown ids.
	ErrSessionNotFound = errors.New("kiosk: session not found")
)
