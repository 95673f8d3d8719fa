// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package jpegexif

import (
	"encoding"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Rat is a rational number as stored in Rational (uint32) and SRational (int32) values.
type Rat[T int32 | uint32] interface {
	Num() T
	Den() T
	Float64() float64

	// String returns "num/den", or just "num" for whole numbers.
	String() string
}

var (
	_ encoding.TextUnmarshaler = (*rational[uint32])(nil)
	_ encoding.TextMarshaler   = rational[int32]{}
)

var errZeroDenominator = errors.New("denominator must be non-zero")

type rational[T int32 | uint32] struct {
	num, den T
}

func (r rational[T]) Num() T { return r.num }
func (r rational[T]) Den() T { return r.den }

func (r rational[T]) Float64() float64 {
	return float64(r.num) / float64(r.den)
}

func (r rational[T]) String() string {
	if r.den == 1 {
		return strconv.FormatInt(int64(r.num), 10)
	}
	return strconv.FormatInt(int64(r.num), 10) + "/" + strconv.FormatInt(int64(r.den), 10)
}

func (r rational[T]) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses "num/den" or "num".
func (r *rational[T]) UnmarshalText(text []byte) error {
	s := string(text)
	numStr, denStr, hasDen := strings.Cut(s, "/")
	num, err := parseRatPart[T](numStr)
	if err != nil {
		return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
	}
	den := T(1)
	if hasDen {
		if den, err = parseRatPart[T](denStr); err != nil {
			return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
		}
	}
	if den == 0 {
		return errZeroDenominator
	}
	r.num, r.den = num, den
	return nil
}

func parseRatPart[T int32 | uint32](s string) (T, error) {
	var zero T
	if zero-1 > 0 {
		n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
		return T(n), err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	return T(n), err
}

// NewRat returns num/den in lowest terms with a positive denominator.
func NewRat[T int32 | uint32](num, den T) (Rat[T], error) {
	if den == 0 {
		return nil, errZeroDenominator
	}
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	if a != 1 {
		num, den = num/a, den/a
	}
	if den < 0 {
		num, den = -num, -den
	}
	return &rational[T]{num: num, den: den}, nil
}
