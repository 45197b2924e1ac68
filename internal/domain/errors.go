package domain

import "errors"

var (
	// ErrQuestionNotFound indicates a question ID is not in the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPromptNotFound indicates a drawing prompt ID is unknown.
	ErrPromptNotFound = errors.New("prompt not found")
	// ErrGuestNotFound is returned when an action arrives from an id that
	// was never registered or has been removed.
	ErrGuestNotFound = errors.New("guest not found")
	// ErrNumbersOnly rejects a numeric-question answer with no digits in it.
	ErrNumbersOnly = errors.New("numbers only")
	// ErrQuestionInUse rejects edits to a question already graded this event.
	ErrQuestionInUse = errors.New("question already used in a scored round")
	// ErrInvalidChoice rejects a gender vote outside the two options.
	ErrInvalidChoice = errors.New("invalid vote choice")
)
