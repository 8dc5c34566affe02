// Package ident provides a positive integer identifier.
package ident

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidID is returned for anything that is not a positive integer.
var ErrInvalidID = errors.New("ident: only positive integer ids are allowed")

// ID is a validated identifier, always >= 1.
type ID int64

// New validates n.
func New(n int64) (ID, error) {
	if n < 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, n)
	}
	return ID(n), nil
}

// Parse accepts integers, integral floats and base-10 strings.
func Parse(v any) (ID, error) {
	switch n := v.(type) {
	case ID:
		return New(int64(n))
	case int:
		return New(int64(n))
	case int8:
		return New(int64(n))
	case int16:
		return New(int64(n))
	case int32:
		return New(int64(n))
	case int64:
		return New(n)
	case uint:
		return fromUint(uint64(n))
	case uint8:
		return fromUint(uint64(n))
	case uint16:
		return fromUint(uint64(n))
	case uint32:
		return fromUint(uint64(n))
	case uint64:
		return fromUint(n)
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidID, n)
		}
		return New(int64(n))
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidID, n)
		}
		return New(i)
	}
	return 0, fmt.Errorf("%w: %T", ErrInvalidID, v)
}

func fromUint(n uint64) (ID, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, n)
	}
	return New(int64(n))
}

// Int64 returns the numeric value.
func (id ID) Int64() int64 { return int64(id) }

func (id ID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id ID) MarshalJSON() ([]byte, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, int64(id))
	}
	return []byte(id.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (id *ID) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if num, ok := raw.(json.Number); ok {
		raw = num.String()
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
