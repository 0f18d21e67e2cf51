package report

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies generation failures.
type Kind int

const (
	KindTemplateLoad Kind = iota + 1
	KindCorruptTemplate
	KindUpstreamLookup
	KindSerialization
)

var (
	ErrTemplateLoad    = errors.New("template load failed")
	ErrCorruptTemplate = errors.New("corrupt template")
	ErrUpstreamLookup  = errors.New("upstream lookup failed")
	ErrSerialization   = errors.New("serialization failed")
)

func (k Kind) String() string {
	switch k {
	case KindTemplateLoad:
		return "template load"
	case KindCorruptTemplate:
		return "corrupt template"
	case KindUpstreamLookup:
		return "upstream lookup"
	case KindSerialization:
		return "serialization"
	}
	return "unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case KindTemplateLoad:
		return ErrTemplateLoad
	case KindCorruptTemplate:
		return ErrCorruptTemplate
	case KindUpstreamLookup:
		return ErrUpstreamLookup
	case KindSerialization:
		return ErrSerialization
	}
	return nil
}

// Error is the single typed failure returned by Generate.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("report: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the kind of a generation error, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op string, err error) error {
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// classify maps a step failure onto the error taxonomy. Anything the
// document model rejects means the template lacked the expected structure.
func classify(op string, err error) error {
	var existing *Error
	if errors.As(err, &existing) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: KindCorruptTemplate, Op: op, Err: err}
}
