package otp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
)

// ErrInvalidRange is returned when the code range is empty or has mixed widths.
var ErrInvalidRange = errors.New("otp: invalid code range")

// Generator produces one-time codes.
type Generator interface {
	// Generate returns a new code.
	Generate() string
}

// Numeric draws decimal codes from [min, max] inclusive.
type Numeric struct {
	min    uint32
	span   uint32
	limit  uint32
	reader io.Reader
}

// NewNumeric returns a generator for codes in [minimum, maximum]. Both bounds
// must have the same number of digits so every code has a fixed width.
func NewNumeric(minimum, maximum uint32) (*Numeric, error) {
	if minimum > maximum || len(strconv.FormatUint(uint64(minimum), 10)) != len(strconv.FormatUint(uint64(maximum), 10)) {
		return nil, ErrInvalidRange
	}

	span := maximum - minimum + 1
	// largest multiple of span that fits in 32 bits
	limit := (1 << 32) / uint64(span) * uint64(span)

	return &Numeric{
		min:    minimum,
		span:   span,
		limit:  uint32(limit - 1),
		reader: rand.Reader,
	}, nil
}

// NewSixDigit returns the generator used for email verification codes.
func NewSixDigit() *Numeric {
	//nolint:errcheck // constant range is valid
	n, _ := NewNumeric(100000, 999999)
	return n
}

// Generate returns a code. crypto/rand.Reader never fails on supported
// platforms; a failing custom reader panics.
func (n *Numeric) Generate() string {
	var b [4]byte
	for {
		if _, err := io.ReadFull(n.reader, b[:]); err != nil {
			panic("otp: entropy source failed: " + err.Error())
		}

		v := binary.BigEndian.Uint32(b[:])
		if v > n.limit {
			continue
		}

		return strconv.FormatUint(uint64(n.min+v%n.span), 10)
	}
}
