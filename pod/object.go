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

import "fmt"

// ErrTypeMismatch is returned by FilterObjects when the two objects do
// not share a type id.
var ErrTypeMismatch = fmt.Errorf("pod: object type id mismatch")

// FilterObjects computes the param filter of two POD objects of the same
// type id (spec.md §4.5.1): each shared property key is intersected with
// FilterChoice; a property present on only one side is copied through
// verbatim (the "Top" identity — param-filter(a, Top) = a of spec.md
// §8's round-trip law, applied property-by-property).
func FilterObjects(a, b Object) (Object, error) {
	if a.TypeID != b.TypeID {
		return Object{}, ErrTypeMismatch
	}

	out := Object{TypeID: a.TypeID}
	seen := make(map[uint32]bool, len(a.Props))

	for _, pa := range a.Props {
		seen[pa.Key] = true
		pb, ok := b.Find(pa.Key)
		if !ok {
			out.Props = append(out.Props, pa)
			continue
		}
		c, err := FilterChoice(pa.Choice, pb.Choice)
		if err != nil {
			return Object{}, fmt.Errorf("property %d: %w", pa.Key, err)
		}
		out.Props = append(out.Props, Property{Key: pa.Key, Choice: c})
	}

	for _, pb := range b.Props {
		if !seen[pb.Key] {
			out.Props = append(out.Props, pb)
		}
	}

	return out, nil
}

// Fixate reduces every Choice in o to ChoiceNone using each Choice's
// Default, producing a single concrete format (spec.md §4.5.2's "fixate
// the filter" phase).
func Fixate(o Object) Object {
	out := Object{TypeID: o.TypeID}
	for _, p := range o.Props {
		out.Props = append(out.Props, Property{Key: p.Key, Choice: None(p.Choice.Default)})
	}
	return out
}
