// Package collection provides an ordered container that validates what goes
// into it and can be locked against further change.
package collection

import (
	"errors"
	"fmt"
)

var (
	// ErrImmutable is returned by every mutating method once Lock was called.
	ErrImmutable = errors.New("collection: collection is immutable")

	// ErrInvalidElement is returned when the validator rejects an element.
	ErrInvalidElement = errors.New("collection: invalid element")

	// ErrOutOfRange is returned for an index outside the collection.
	ErrOutOfRange = errors.New("collection: index out of range")
)

// Validator checks an element before it is stored. A nil Validator accepts
// everything the type parameter allows.
type Validator[T any] func(T) error

// Restricted is an ordered list of T. It is not safe for concurrent
// mutation; lock it before sharing it.
type Restricted[T comparable] struct {
	items    []T
	validate Validator[T]
	locked   bool
}

// New builds a collection holding items, each checked by validate.
func New[T comparable](validate Validator[T], items ...T) (*Restricted[T], error) {
	c := &Restricted[T]{validate: validate}
	if err := c.Append(items...); err != nil {
		return nil, err
	}
	return c, nil
}

// Lock makes the collection immutable. There is no way back.
func (c *Restricted[T]) Lock() {
	c.locked = true
}

// Locked reports whether Lock was called.
func (c *Restricted[T]) Locked() bool {
	return c.locked
}

// Set replaces the element at i. i == Len() appends.
func (c *Restricted[T]) Set(i int, v T) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if i < 0 || i > len(c.items) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	if err := c.check(v); err != nil {
		return err
	}
	if i == len(c.items) {
		c.items = append(c.items, v)
		return nil
	}
	c.items[i] = v
	return nil
}

// Add appends v.
func (c *Restricted[T]) Add(v T) error {
	return c.Append(v)
}

// Append adds every value, or none of them if one is rejected.
func (c *Restricted[T]) Append(values ...T) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	for _, v := range values {
		if err := c.check(v); err != nil {
			return err
		}
	}
	c.items = append(c.items, values...)
	return nil
}

// Remove deletes the element at i.
func (c *Restricted[T]) Remove(i int) error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// RemoveElement deletes the first element equal to v and reports whether
// one was found.
func (c *Restricted[T]) RemoveElement(v T) (bool, error) {
	if err := c.checkMutable(); err != nil {
		return false, err
	}
	i := c.IndexOf(v)
	if i < 0 {
		return false, nil
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true, nil
}

// Clear removes every element.
func (c *Restricted[T]) Clear() error {
	if err := c.checkMutable(); err != nil {
		return err
	}
	c.items = nil
	return nil
}

// Get returns the element at i.
func (c *Restricted[T]) Get(i int) (T, bool) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, false
	}
	return c.items[i], true
}

// Len returns the number of elements.
func (c *Restricted[T]) Len() int {
	return len(c.items)
}

// Items returns a copy of the elements in order.
func (c *Restricted[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// IndexOf returns the index of the first element equal to v, or -1.
func (c *Restricted[T]) IndexOf(v T) int {
	for i, item := range c.items {
		if item == v {
			return i
		}
	}
	return -1
}

// Contains reports whether v is in the collection.
func (c *Restricted[T]) Contains(v T) bool {
	return c.IndexOf(v) >= 0
}

func (c *Restricted[T]) checkMutable() error {
	if c.locked {
		return ErrImmutable
	}
	return nil
}

func (c *Restricted[T]) check(v T) error {
	if c.validate == nil {
		return nil
	}
	if err := c.validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	return nil
}
