package audio

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by how the caller is expected to react to it.
type Kind int

const (
	KindUndefined = Kind(iota)

	// KindConfiguration is an invalid parameter or an unknown profile name.
	// It is fatal and must not be retried.
	KindConfiguration

	// KindNumericalDegeneracy is a numerically degenerate signal (silence,
	// zero variance, non-finite intermediate values). It is recovered
	// locally by passing the input through and is never fatal.
	KindNumericalDegeneracy

	// KindShapeMismatch is a reconstructed length that disagrees with the
	// expected one after the truncate/pad correction.
	KindShapeMismatch

	// KindResourceExhaustion is an input too large for the frame matrices.
	KindResourceExhaustion

	// KindInvalidInput is an input containing non-finite samples.
	KindInvalidInput
)

var (
	ErrConfiguration       = errors.New("configuration error")
	ErrNumericalDegeneracy = errors.New("numerical degeneracy")
	ErrShapeMismatch       = errors.New("shape mismatch")
	ErrResourceExhaustion  = errors.New("resource exhaustion")
	ErrInvalidInput        = errors.New("invalid input")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindNumericalDegeneracy:
		return ErrNumericalDegeneracy
	case KindShapeMismatch:
		return ErrShapeMismatch
	case KindResourceExhaustion:
		return ErrResourceExhaustion
	case KindInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("unknown_kind_%d", int(k))
}

// IsFatal reports whether an error of this kind must abort the request.
func (k Kind) IsFatal() bool {
	return k != KindNumericalDegeneracy
}

// Error is an error annotated with its Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

var _ error = (*Error)(nil)

func NewError(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	var result []error
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		result = append(result, sentinel)
	}
	if e.Err != nil {
		result = append(result, e.Err)
	}
	return result
}

// KindOf returns the Kind of the first *Error found in the chain of err.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for k := KindConfiguration; k <= KindInvalidInput; k++ {
		if errors.Is(err, k.sentinel()) {
			return k
		}
	}
	return KindUndefined
}
