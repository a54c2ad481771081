// The testdata package provides shared helpers for the package tests:
// a writer that packs fields into a bit stream MSB first, mirroring
// the layout of an MT1 body, and an encoder that turns an information
// block into the full set of 255 transmittable pages.
package testdata

import (
	"fmt"

	"github.com/goblimey/go-has/has/page"
	"github.com/goblimey/go-has/has/reedsolomon"
)

// BitWriter packs values into a byte buffer MSB first, the layout the
// bit reader consumes.
type BitWriter struct {
	buf  []byte
	bits uint
}

// Uint appends the bottom width bits of value, most significant bit
// first.
func (w *BitWriter) Uint(value uint64, width uint) {
	for i := int(width) - 1; i >= 0; i-- {
		if w.bits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		bit := (value >> uint(i)) & 1
		w.buf[w.bits/8] |= byte(bit) << (7 - w.bits%8)
		w.bits++
	}
}

// Int appends a signed value in two's complement form.
func (w *BitWriter) Int(value int64, width uint) {
	w.Uint(uint64(value)&((1<<width)-1), width)
}

// Bool appends one bit.
func (w *BitWriter) Bool(value bool) {
	if value {
		w.Uint(1, 1)
	} else {
		w.Uint(0, 1)
	}
}

// Len returns the number of bits written so far.
func (w *BitWriter) Len() uint {
	return w.bits
}

// Bytes returns the stream, zero-padded to a whole number of bytes.
func (w *BitWriter) Bytes() []byte {
	return w.buf
}

// PaddedTo returns the stream zero-padded to the given number of
// octets, the form in which a recovered information block arrives.
func (w *BitWriter) PaddedTo(octets int) []byte {
	out := make([]byte, octets)
	copy(out, w.buf)
	return out
}

// Pages encodes an information block into the full set of 255 pages
// for one message.  The block must be size x 53 octets; rows from
// size up to 32 are zero padding.  The returned slice is indexed by
// page ID - 1, so any subset of pages can be delivered in any order.
func Pages(mid uint8, size uint8, info []byte) []*page.Page {
	if len(info) != int(size)*page.PayloadLengthOctets {
		panic(fmt.Sprintf("testdata: information block is %d octets, want %d",
			len(info), int(size)*page.PayloadLengthOctets))
	}

	// The 32x53 information matrix, rows beyond the message size
	// left zero.
	var m [reedsolomon.InfoLength][page.PayloadLengthOctets]byte
	for r := 0; r < int(size); r++ {
		copy(m[r][:], info[r*page.PayloadLengthOctets:(r+1)*page.PayloadLengthOctets])
	}

	codec := reedsolomon.New()
	var matrix [reedsolomon.BlockLength][page.PayloadLengthOctets]byte
	column := make([]byte, reedsolomon.InfoLength)
	for c := 0; c < page.PayloadLengthOctets; c++ {
		for r := 0; r < reedsolomon.InfoLength; r++ {
			column[r] = m[r][c]
		}
		block, err := codec.Encode(column)
		if err != nil {
			panic("testdata: " + err.Error())
		}
		for r := 0; r < reedsolomon.BlockLength; r++ {
			matrix[r][c] = block[r]
		}
	}

	pages := make([]*page.Page, reedsolomon.BlockLength)
	for pid := 1; pid <= reedsolomon.BlockLength; pid++ {
		p := page.Page{
			Status:        1,
			MessageType:   1,
			MessageID:     mid,
			MessageSize:   size,
			MessagePageID: uint8(pid),
			Payload:       matrix[pid-1],
		}
		pages[pid-1] = &p
	}
	return pages
}
