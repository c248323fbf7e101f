// SPDX-License-Identifier: MIT
package fft

import "fmt"

// View is a strided window over one contiguous sample buffer. Element i
// of the view lives at buf[offset+i*stride]. Sub-views share the buffer,
// which is what lets the kernel recurse over even/odd subsequences
// without copying.
type View struct {
	buf    []complex64
	offset int
	length int
	stride int
}

// NewView returns a unit-stride view covering all of buf.
func NewView(buf []complex64) View {
	return View{buf: buf, length: len(buf), stride: 1}
}

// Len returns the number of elements addressed by the view.
func (v View) Len() int { return v.length }

// Stride returns the distance between consecutive elements in the
// backing buffer.
func (v View) Stride() int { return v.stride }

// At returns element i.
func (v View) At(i int) complex64 {
	return v.buf[v.offset+i*v.stride]
}

// Set stores c at element i.
func (v View) Set(i int, c complex64) {
	v.buf[v.offset+i*v.stride] = c
}

// Sub returns the view of n elements starting at element start and taking
// every stride-th element of v. Strides compose, so Sub(1, n, 2) of a
// stride-2 view has stride 4 in the backing buffer. Sub panics when the
// requested range does not fit inside v, as a slice expression would.
func (v View) Sub(start, n, stride int) View {
	if start < 0 || n < 0 || stride < 1 {
		panic(fmt.Sprintf("fft: invalid sub-view (start=%d, n=%d, stride=%d)", start, n, stride))
	}
	if n > 0 && start+(n-1)*stride >= v.length {
		panic(fmt.Sprintf("fft: sub-view [%d:+%d/%d] out of range for view of length %d", start, n, stride, v.length))
	}
	return View{
		buf:    v.buf,
		offset: v.offset + start*v.stride,
		length: n,
		stride: v.stride * stride,
	}
}

// CopyTo copies the elements of v into dst and returns the number copied.
func (v View) CopyTo(dst []complex64) int {
	n := min(len(dst), v.length)
	for i := range n {
		dst[i] = v.At(i)
	}
	return n
}
