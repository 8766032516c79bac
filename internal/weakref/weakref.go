/*
 * MIT License
 *
 * Copyright (c) 2022-2025  Arsene Tochemey Gandote
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
 */

// Package weakref provides a weak reference to the object behind a
// pointer-shaped interface value. It exists because weak.Make requires the
// concrete pointer type at compile time, while observer registration receives
// arbitrary interface values.
package weakref

import (
	"reflect"
	"unsafe"
	"weak"
)

// Ref is a weak reference to the object a pointer-shaped value points to.
// The zero Ref resolves to nil.
type Ref struct {
	typ reflect.Type
	id  uintptr
	ptr weak.Pointer[byte]
}

// Make returns a weak reference to the object behind v. It reports false when
// v is not a non-nil pointer.
func Make(v any) (Ref, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return Ref{}, false
	}
	p := rv.UnsafePointer()
	return Ref{
		typ: rv.Type(),
		id:  uintptr(p),
		ptr: weak.Make((*byte)(p)),
	}, true
}

// ID returns a stable identity token for the referenced object. It must only
// be used while the object is known to be alive; addresses may be reused
// after collection.
func (r Ref) ID() uintptr {
	return r.id
}

// Value returns the referenced object as it was presented to Make, or nil
// when the object has been garbage-collected (or the Ref is zero).
func (r Ref) Value() any {
	if r.typ == nil {
		return nil
	}
	p := r.ptr.Value()
	if p == nil {
		return nil
	}
	return reflect.NewAt(r.typ.Elem(), unsafe.Pointer(p)).Interface()
}

// Alive reports whether the referenced object has not yet been collected.
func (r Ref) Alive() bool {
	return r.typ != nil && r.ptr.Value() != nil
}
