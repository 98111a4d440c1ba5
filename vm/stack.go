// Package vm implements the operand stack and single-frame bytecode
// executor.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package vm

import "github.com/dotlanth/dotvm/cmn"

// DefaultMaxStackSize is the operand stack's default depth limit.
const DefaultMaxStackSize = 10000

// Stack is the per-invocation operand stack. Every mutation checks
// overflow/underflow against maxSize.
type Stack struct {
	values  []Value
	maxSize int
}

// NewStack returns an empty stack with the default max size.
func NewStack() *Stack { return NewStackWithMaxSize(DefaultMaxStackSize) }

// NewStackWithMaxSize returns an empty stack with a configured max depth.
func NewStackWithMaxSize(maxSize int) *Stack {
	cap := maxSize
	if cap > 1000 {
		cap = 1000
	}
	return &Stack{values: make([]Value, 0, cap), maxSize: maxSize}
}

func overflowErr(op string) error {
	return cmn.NewError(cmn.KindCapacity, op, "stack overflow: maximum size exceeded", nil)
}

func underflowErr(op string) error {
	return cmn.NewError(cmn.KindValidation, op, "stack underflow: attempted to pop from empty stack", nil)
}

// Push adds value to the top of the stack.
func (s *Stack) Push(value Value) error {
	if len(s.values) >= s.maxSize {
		return overflowErr("vm.Stack.Push")
	}
	s.values = append(s.values, value)
	return nil
}

// Pop removes and returns the top value.
func (s *Stack) Pop() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, underflowErr("vm.Stack.Pop")
	}
	top := s.values[len(s.values)-1]
	s.values = s.values[:len(s.values)-1]
	return top, nil
}

// Peek returns the top value without removing it.
func (s *Stack) Peek() (Value, error) {
	if len(s.values) == 0 {
		return Value{}, underflowErr("vm.Stack.Peek")
	}
	return s.values[len(s.values)-1], nil
}

// PeekAt returns the value at depth (0 = top, 1 = second from top, ...).
func (s *Stack) PeekAt(depth int) (Value, error) {
	if depth < 0 || depth >= len(s.values) {
		return Value{}, underflowErr("vm.Stack.PeekAt")
	}
	return s.values[len(s.values)-1-depth], nil
}

// Size returns the current number of values on the stack.
func (s *Stack) Size() int { return len(s.values) }

// IsEmpty reports whether the stack has no values.
func (s *Stack) IsEmpty() bool { return len(s.values) == 0 }

// Clear removes every value from the stack.
func (s *Stack) Clear() { s.values = s.values[:0] }

// Dup pushes a copy of the top value.
func (s *Stack) Dup() error {
	top, err := s.Peek()
	if err != nil {
		return err
	}
	return s.Push(top)
}

// Swap exchanges the top two values.
func (s *Stack) Swap() error {
	if len(s.values) < 2 {
		return underflowErr("vm.Stack.Swap")
	}
	n := len(s.values)
	s.values[n-1], s.values[n-2] = s.values[n-2], s.values[n-1]
	return nil
}

// PopTwo pops two values and returns them in push order (a pushed first,
// b pushed second), the pair a non-commutative binary opcode consumes,
// with b as the right-hand operand.
func (s *Stack) PopTwo() (a, b Value, err error) {
	b, err = s.Pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	a, err = s.Pop()
	if err != nil {
		return Value{}, Value{}, err
	}
	return a, b, nil
}

// PopThree pops three values and returns them in push order.
func (s *Stack) PopThree() (a, b, c Value, err error) {
	c, err = s.Pop()
	if err != nil {
		return Value{}, Value{}, Value{}, err
	}
	b, err = s.Pop()
	if err != nil {
		return Value{}, Value{}, Value{}, err
	}
	a, err = s.Pop()
	if err != nil {
		return Value{}, Value{}, Value{}, err
	}
	return a, b, c, nil
}

// Snapshot returns a copy of the current stack contents.
func (s *Stack) Snapshot() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// Restore replaces the stack contents with snapshot.
func (s *Stack) Restore(snapshot []Value) error {
	if len(snapshot) > s.maxSize {
		return overflowErr("vm.Stack.Restore")
	}
	s.values = append(s.values[:0], snapshot...)
	return nil
}

// MaxSize returns the stack's configured depth limit.
func (s *Stack) MaxSize() int { return s.maxSize }

// HasAtLeast reports whether the stack holds at least n values.
func (s *Stack) HasAtLeast(n int) bool { return len(s.values) >= n }
