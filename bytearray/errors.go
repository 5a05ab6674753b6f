/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 */

// Package bytearray implements the component C1 byte buffer: an endian-aware
// append/consume byte stream backed by a chain of fixed-size nodes, with
// fixed-width, varint/zigzag, float and length-prefixed string codecs plus
// scatter-gather views for syscall-facing code.
package bytearray

import (
	liberr "github.com/DreamTraveler233/sylar-sub003/errors"
)

const (
	ErrorUnderflow = liberr.CodeError(liberr.MinPkgBytearray + iota)
	ErrorInvalidLength
	ErrorFile
)

func init() {
	liberr.RegisterIdFctMessage(liberr.MinPkgBytearray, getMessage)
}

func getMessage(code liberr.CodeError) string {
	switch code {
	case ErrorUnderflow:
		return "read past the end of the buffer"
	case ErrorInvalidLength:
		return "invalid length prefix"
	case ErrorFile:
		return "buffer file round-trip failed"
	}
	return liberr.UnknownMessage
}
