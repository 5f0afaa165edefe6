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
	"github.com/fxamacker/cbor/v2"
)

// wireValue mirrors Value for cbor purposes; the real inter-process wire
// codec is out of scope (spec.md §1), this snapshot format exists only to
// dump/replay fixtures in tests and the debug API.
type wireValue struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	ID    uint32
	Rect  Rectangle
	Frac  Fraction
	Items []wireValue
}

func toWire(v Value) wireValue {
	w := wireValue{
		Kind: v.Kind, Bool: v.Bool, Int: v.Int, Float: v.Float,
		Str: v.Str, Bytes: v.Bytes, ID: v.ID, Rect: v.Rect, Frac: v.Frac,
	}
	for _, it := range v.Items {
		w.Items = append(w.Items, toWire(it))
	}
	return w
}

func fromWire(w wireValue) Value {
	v := Value{
		Kind: w.Kind, Bool: w.Bool, Int: w.Int, Float: w.Float,
		Str: w.Str, Bytes: w.Bytes, ID: w.ID, Rect: w.Rect, Frac: w.Frac,
	}
	for _, it := range w.Items {
		v.Items = append(v.Items, fromWire(it))
	}
	return v
}

// Marshal snapshots a Value as CBOR, for debug dumps and golden fixtures.
func Marshal(v Value) ([]byte, error) {
	return cbor.Marshal(toWire(v))
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(b []byte) (Value, error) {
	var w wireValue
	if err := cbor.Unmarshal(b, &w); err != nil {
		return Value{}, err
	}
	return fromWire(w), nil
}
