// The bits package provides MSB-first extraction of bit fields from a
// packed byte buffer.  The HAS message body is a dense bit stream whose
// field boundaries ignore byte boundaries, so every field is fetched by
// bit position and width.  Numeric fields are big-endian within the
// field: the first bit read is the most significant.
package bits

import (
	"errors"
)

// ErrInsufficientBits is returned when a read would run past the end of
// the bit stream.
var ErrInsufficientBits = errors.New("bits: read past the end of the bit stream")

// GetBitsAsUint64 extracts length bits from a slice of bytes, starting
// at bit position pos, and returns them as an unsigned value.
func GetBitsAsUint64(buff []byte, pos uint, length uint) uint64 {
	// The C version in RTKLIB is:
	//
	// extern unsigned int getbitu(const unsigned char *buff, int pos, int len)
	// {
	//     unsigned int bits=0;
	//     int i;
	//     for (i=pos;i<pos+len;i++) bits=(bits<<1)+((buff[i/8]>>(7-i%8))&1u);
	//     return bits;
	// }
	var result uint64
	for i := pos; i < pos+length; i++ {
		byteNumber := i / 8
		shiftBy := 7 - i%8
		bit := (uint64(buff[byteNumber]) >> shiftBy) & 1
		result = (result << 1) | bit
	}
	return result
}

// GetBitsAsInt64 extracts length bits from a slice of bytes, starting at
// bit position pos, and returns them as a signed value, sign-extended
// from the top bit of the field.
func GetBitsAsInt64(buff []byte, pos uint, length uint) int64 {
	uval := GetBitsAsUint64(buff, pos, length)
	return SignExtend(uval, length)
}

// SignExtend interprets the bottom fromBits bits of value as a
// two's-complement number and extends the sign into the full 64-bit
// result.
func SignExtend(value uint64, fromBits uint) int64 {
	if fromBits == 0 || fromBits >= 64 {
		return int64(value)
	}
	signBit := uint64(1) << (fromBits - 1)
	if value&signBit == 0 {
		return int64(value)
	}
	// Negative: set every bit above the field.
	return int64(value | ^(signBit<<1 - 1))
}

// Reader is a cursor over a bit stream held in a packed byte buffer.
// The zero value is not usable; create one with NewReader or
// NewReaderBits.
type Reader struct {
	buff      []byte
	pos       uint
	totalBits uint
}

// NewReader creates a Reader over the whole of the given buffer.
func NewReader(buff []byte) *Reader {
	return &Reader{buff: buff, totalBits: uint(len(buff)) * 8}
}

// NewReaderBits creates a Reader over the first numBits bits of the
// given buffer.  Use this when the stream does not fill the last byte,
// or when trailing padding must not be readable.
func NewReaderBits(buff []byte, numBits uint) *Reader {
	max := uint(len(buff)) * 8
	if numBits > max {
		numBits = max
	}
	return &Reader{buff: buff, totalBits: numBits}
}

// Position returns the cursor position in bits from the start of the
// stream.
func (r *Reader) Position() uint {
	return r.pos
}

// Remaining returns the number of bits left to read.
func (r *Reader) Remaining() uint {
	return r.totalBits - r.pos
}

// Uint64 consumes length bits and returns them as an unsigned value.
func (r *Reader) Uint64(length uint) (uint64, error) {
	if length > r.Remaining() {
		return 0, ErrInsufficientBits
	}
	result := GetBitsAsUint64(r.buff, r.pos, length)
	r.pos += length
	return result, nil
}

// Int64 consumes length bits and returns them as a signed
// (two's-complement, sign-extended) value.
func (r *Reader) Int64(length uint) (int64, error) {
	uval, err := r.Uint64(length)
	if err != nil {
		return 0, err
	}
	return SignExtend(uval, length), nil
}

// Bool consumes one bit and returns it as a flag.
func (r *Reader) Bool() (bool, error) {
	bit, err := r.Uint64(1)
	if err != nil {
		return false, err
	}
	return bit == 1, nil
}

// Skip consumes length bits without returning them.
func (r *Reader) Skip(length uint) error {
	if length > r.Remaining() {
		return ErrInsufficientBits
	}
	r.pos += length
	return nil
}
