/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package pod

import (
	"fmt"

	liberr "github.com/sigflow/sigflow/errors"
)

// ChoiceType is the wrapper kind a Property's Value may carry, narrowing a
// plain Value into a constraint the param filter can intersect.
type ChoiceType uint8

const (
	// ChoiceNone is no choice at all: the Value is exactly itself.
	ChoiceNone ChoiceType = iota
	// ChoiceRange constrains to a closed interval [Min, Max].
	ChoiceRange
	// ChoiceStep constrains to {Min, Min+Step, ..., <=Max}.
	ChoiceStep
	// ChoiceEnum constrains to one of a fixed set of values.
	ChoiceEnum
	// ChoiceFlags constrains to a sub-bitmask of a fixed set of flag bits.
	ChoiceFlags
)

func (c ChoiceType) String() string {
	switch c {
	case ChoiceNone:
		return "none"
	case ChoiceRange:
		return "range"
	case ChoiceStep:
		return "step"
	case ChoiceEnum:
		return "enum"
	case ChoiceFlags:
		return "flags"
	default:
		return "unknown"
	}
}

// Choice is a Choice(type, [default, alt1, alt2, ...]) wrapper as described
// in spec.md §4.5.1. Default is always present; Alts holds the remaining
// values (for Range/Step: [min,max] / [min,max,step]; for Enum/Flags: the
// full accepted set).
type Choice struct {
	Type    ChoiceType
	Default Value
	Alts    []Value
}

// None wraps v as Choice(None, v) = v.
func None(v Value) Choice { return Choice{Type: ChoiceNone, Default: v} }

// Range builds Choice(Range, [def,min,max]).
func Range(def, min, max Value) Choice {
	return Choice{Type: ChoiceRange, Default: def, Alts: []Value{min, max}}
}

// Step builds Choice(Step, [def,min,max,step]).
func Step(def, min, max, step Value) Choice {
	return Choice{Type: ChoiceStep, Default: def, Alts: []Value{min, max, step}}
}

// Enum builds Choice(Enum, [def, v1, v2, ...]).
func Enum(def Value, vs ...Value) Choice {
	return Choice{Type: ChoiceEnum, Default: def, Alts: vs}
}

// Flags builds Choice(Flags, [def, f1, f2, ...]).
func Flags(def Value, fs ...Value) Choice {
	return Choice{Type: ChoiceFlags, Default: def, Alts: fs}
}

// Property is a named field inside an Object, carrying either a plain Value
// (Choice.Type == ChoiceNone) or a constrained Choice.
type Property struct {
	Key    uint32 // interned typeid.Id of the property key
	Choice Choice
}

// Object is a POD object-of-properties: a parameter candidate of a given
// type id (EnumFormat, Buffers, Meta, IO, ...).
type Object struct {
	TypeID uint32
	Props  []Property
}

// Find returns the Property with the given key, if present.
func (o Object) Find(key uint32) (Property, bool) {
	for _, p := range o.Props {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// WithProp returns a copy of o with p inserted or replacing the existing
// property of the same key.
func (o Object) WithProp(p Property) Object {
	out := Object{TypeID: o.TypeID, Props: make([]Property, 0, len(o.Props)+1)}
	replaced := false
	for _, q := range o.Props {
		if q.Key == p.Key {
			out.Props = append(out.Props, p)
			replaced = true
		} else {
			out.Props = append(out.Props, q)
		}
	}
	if !replaced {
		out.Props = append(out.Props, p)
	}
	return out
}

var (
	// ErrUnsupportedStep is returned when a Step choice participates in an
	// intersection. spec.md §9 records this as a deliberate choice between
	// two behaviors seen in the original source (reject vs. silent
	// pass-through); this implementation rejects, matching spec.md's pick.
	ErrUnsupportedStep = liberr.New(uint16(liberr.MinPkgPOD+1), "step choice unsupported in intersection")
	// ErrEmptyIntersection is returned when two Enum/Flags/Range choices
	// share no value.
	ErrEmptyIntersection = liberr.New(uint16(liberr.MinPkgPOD+2), "empty choice intersection")
	// ErrKindMismatch is returned when two choices constrain values of
	// different underlying Kind.
	ErrKindMismatch = liberr.New(uint16(liberr.MinPkgPOD+3), "choice value kind mismatch")
)

// satisfies reports whether v is a member of the set described by c.
func satisfies(c Choice, v Value) bool {
	switch c.Type {
	case ChoiceNone:
		return Equal(c.Default, v)
	case ChoiceRange:
		return !less(v, c.Alts[0]) && !less(c.Alts[1], v)
	case ChoiceStep:
		return inStep(c.Alts[0], c.Alts[1], c.Alts[2], v)
	case ChoiceEnum:
		for _, a := range c.Alts {
			if Equal(a, v) {
				return true
			}
		}
		return false
	case ChoiceFlags:
		bits, ok1 := asBits(v)
		if !ok1 {
			return false
		}
		var allowed int64
		for _, a := range c.Alts {
			if b, ok := asBits(a); ok {
				allowed |= b
			}
		}
		return bits&^allowed == 0
	default:
		return false
	}
}

func asBits(v Value) (int64, bool) {
	switch v.Kind {
	case KindInt, KindLong, KindID, KindFd:
		if v.Kind == KindID || v.Kind == KindFd {
			return int64(v.ID), true
		}
		return v.Int, true
	default:
		return 0, false
	}
}

func less(a, b Value) bool {
	switch a.Kind {
	case KindInt, KindLong, KindID, KindFd:
		av, _ := asBits(a)
		bv, _ := asBits(b)
		return av < bv
	case KindFloat, KindDouble:
		return a.Float < b.Float
	default:
		return false
	}
}

func inStep(min, max, step, v Value) bool {
	if less(v, min) || less(max, v) {
		return false
	}
	mi, _ := asBits(min)
	vi, _ := asBits(v)
	si, _ := asBits(step)
	if si <= 0 {
		return Equal(min, v)
	}
	return (vi-mi)%si == 0
}

func minOf(a, b Value) Value {
	if less(a, b) {
		return a
	}
	return b
}

func maxOf(a, b Value) Value {
	if less(a, b) {
		return b
	}
	return a
}

// clamp returns v clamped into [lo,hi].
func clamp(v, lo, hi Value) Value {
	if less(v, lo) {
		return lo
	}
	if less(hi, v) {
		return hi
	}
	return v
}

// FilterChoice intersects two Choices of properties that name the same
// key, implementing the combination table from spec.md §4.5.1:
//
//	Enum  ∩ Enum  -> Enum keeping shared values, default = first kept
//	Range ∩ Range -> Range [max(min),min(max)], default clamped
//	None  ∩ X     -> require None's value satisfies X; default = that value
//	Step  ∩ *     -> unsupported
//
// FilterChoice(a, Top()) == a by construction: Top has no alternatives and
// ChoiceNone semantics only compare equality, so callers should never feed
// a real Top choice through here — Top is represented by property absence
// and handled one level up, in Object filtering (missing properties are
// copied through verbatim).
func FilterChoice(a, b Choice) (Choice, error) {
	if a.Type == ChoiceStep || b.Type == ChoiceStep {
		return Choice{}, ErrUnsupportedStep
	}

	if a.Type == ChoiceNone && b.Type == ChoiceNone {
		if !Equal(a.Default, b.Default) {
			return Choice{}, fmt.Errorf("%w: %s != %s", ErrEmptyIntersection, a.Default, b.Default)
		}
		return a, nil
	}

	if a.Type == ChoiceNone {
		if !satisfies(b, a.Default) {
			return Choice{}, fmt.Errorf("%w: %s not in %s", ErrEmptyIntersection, a.Default, b.Type)
		}
		return None(a.Default), nil
	}
	if b.Type == ChoiceNone {
		return FilterChoice(b, a)
	}

	switch {
	case a.Type == ChoiceEnum && b.Type == ChoiceEnum:
		var kept []Value
		for _, av := range a.Alts {
			for _, bv := range b.Alts {
				if Equal(av, bv) {
					kept = append(kept, av)
					break
				}
			}
		}
		if len(kept) == 0 {
			return Choice{}, ErrEmptyIntersection
		}
		return Enum(kept[0], kept...), nil

	case a.Type == ChoiceRange && b.Type == ChoiceRange:
		lo := maxOf(a.Alts[0], b.Alts[0])
		hi := minOf(a.Alts[1], b.Alts[1])
		if less(hi, lo) {
			return Choice{}, ErrEmptyIntersection
		}
		def := clamp(a.Default, lo, hi)
		if !satisfies(Range(def, lo, hi), b.Default) {
			def = clamp(b.Default, lo, hi)
		}
		return Range(def, lo, hi), nil

	case a.Type == ChoiceFlags && b.Type == ChoiceFlags:
		ab, ok1 := asBits(a.Default)
		bb, ok2 := asBits(b.Default)
		if !ok1 || !ok2 {
			return Choice{}, ErrKindMismatch
		}
		var allowedA, allowedB int64
		for _, v := range a.Alts {
			if bit, ok := asBits(v); ok {
				allowedA |= bit
			}
		}
		for _, v := range b.Alts {
			if bit, ok := asBits(v); ok {
				allowedB |= bit
			}
		}
		shared := allowedA & allowedB
		if shared == 0 {
			return Choice{}, ErrEmptyIntersection
		}
		def := (ab & bb) &^ ^shared
		return Flags(Int(def&shared), Int(shared)), nil

	default:
		// Enum ∩ Range or Range ∩ Enum etc.: narrow the Enum to the values
		// the Range (or Flags) side also accepts.
		enumSide, otherSide := a, b
		if enumSide.Type != ChoiceEnum {
			enumSide, otherSide = b, a
		}
		if enumSide.Type != ChoiceEnum {
			return Choice{}, ErrKindMismatch
		}
		var kept []Value
		for _, v := range enumSide.Alts {
			if satisfies(otherSide, v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			return Choice{}, ErrEmptyIntersection
		}
		return Enum(kept[0], kept...), nil
	}
}
