// Package memo encodes alias operations into transaction memos and decodes
// them back. It is the only place the wire prefixes are spelled out.
package memo

import (
	"errors"
	"strings"
)

const (
	RegisterPrefix = "alias:"
	ConfirmPrefix  = "confirm:"
	Separator      = "->"
)

// ErrInvalidInput is returned when a required alias field is missing or empty.
var ErrInvalidInput = errors.New("invalid input")

type Kind int

const (
	KindRegister Kind = iota + 1
	KindConfirm
)

func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// Operation is a decoded memo. Alias is set for KindRegister, From and To
// for KindConfirm.
type Operation struct {
	Kind  Kind
	Alias string
	From  string
	To    string
}

func Register(alias string) Operation {
	return Operation{Kind: KindRegister, Alias: alias}
}

func Confirm(from, to string) Operation {
	return Operation{Kind: KindConfirm, From: from, To: to}
}

// Encode returns the memo string for the operation.
func (op Operation) Encode() (string, error) {
	switch op.Kind {
	case KindRegister:
		return EncodeRegister(op.Alias)
	case KindConfirm:
		return EncodeConfirm(op.From, op.To)
	default:
		return "", ErrInvalidInput
	}
}

// EncodeRegister trims alias and returns "alias:<alias>".
func EncodeRegister(alias string) (string, error) {
	trimmed := strings.TrimSpace(alias)
	if trimmed == "" {
		return "", missingField("aliasId")
	}
	return RegisterPrefix + trimmed, nil
}

// EncodeConfirm returns "confirm:<from>-><to>". Neither side is trimmed.
func EncodeConfirm(from, to string) (string, error) {
	if from == "" || to == "" {
		return "", missingField("fromAlias and toAlias")
	}
	return ConfirmPrefix + from + Separator + to, nil
}

// Decode parses a memo. The boolean is false for memos that carry neither
// prefix or whose payload is empty (blank, for a register); those are not
// errors.
//
// A confirm payload is split at the first separator, so an alias containing
// "->" on the from side cannot be round-tripped.
func Decode(raw string) (Operation, bool) {
	switch {
	case strings.HasPrefix(raw, RegisterPrefix):
		alias := strings.TrimPrefix(raw, RegisterPrefix)
		if strings.TrimSpace(alias) == "" {
			return Operation{}, false
		}
		return Register(alias), true
	case strings.HasPrefix(raw, ConfirmPrefix):
		from, to, ok := strings.Cut(strings.TrimPrefix(raw, ConfirmPrefix), Separator)
		if !ok || from == "" || to == "" {
			return Operation{}, false
		}
		return Confirm(from, to), true
	default:
		return Operation{}, false
	}
}

// HasSeparator reports whether alias contains the confirm separator and
// would make a confirm memo ambiguous.
func HasSeparator(alias string) bool {
	return strings.Contains(alias, Separator)
}

func missingField(field string) error {
	return &fieldError{field: field}
}

type fieldError struct {
	field string
}

func (e *fieldError) Error() string {
	return e.field + " required"
}

func (e *fieldError) Unwrap() error {
	return ErrInvalidInput
}
