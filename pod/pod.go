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

// Package pod implements the POD value model: a self-describing tagged
// value used for parameters and controls. The core never interprets the
// inner semantics of unknown object types; it only ever compares, wraps and
// combines POD values through the Choice algebra (used by package
// negotiate to run the param filter).
//
// Wire framing/serialization of POD is out of scope (spec.md §1) — the
// Codec here exists only to snapshot values for debug dumps and test
// fixtures, never for the client/server wire protocol.
package pod

import "fmt"

// Kind tags the shape of a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindID
	KindFd
	KindRectangle
	KindFraction
	KindArray
	KindStruct
)

// Rectangle is a POD rectangle (width/height).
type Rectangle struct{ Width, Height uint32 }

// Fraction is a POD fraction (num/denom), used for frame rates.
type Fraction struct{ Num, Denom uint32 }

// Value is a single POD scalar or compound value. Only the field matching
// Kind is meaningful; the rest are zero.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	ID    uint32
	Rect  Rectangle
	Frac  Fraction
	Items []Value // Array/Struct
}

// Equal reports bit-equality of two plain (non-Choice) values, as the param
// filter rule requires: "Plain fields on both sides must be bit-equal."
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNone:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt, KindLong:
		return a.Int == b.Int
	case KindID, KindFd:
		return a.ID == b.ID
	case KindFloat, KindDouble:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindRectangle:
		return a.Rect == b.Rect
	case KindFraction:
		return a.Frac == b.Frac
	case KindArray, KindStruct:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func Int(v int64) Value    { return Value{Kind: KindInt, Int: v} }
func Long(v int64) Value   { return Value{Kind: KindLong, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Str(v string) Value   { return Value{Kind: KindString, Str: v} }
func ID(v uint32) Value    { return Value{Kind: KindID, ID: v} }

func (v Value) String() string {
	switch v.Kind {
	case KindInt, KindLong:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat, KindDouble:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindID:
		return fmt.Sprintf("id:%d", v.ID)
	case KindRectangle:
		return fmt.Sprintf("%dx%d", v.Rect.Width, v.Rect.Height)
	case KindFraction:
		return fmt.Sprintf("%d/%d", v.Frac.Num, v.Frac.Denom)
	default:
		return fmt.Sprintf("<%v>", v.Kind)
	}
}
