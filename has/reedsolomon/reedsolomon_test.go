package reedsolomon

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

// infoBlock returns a deterministic 32-symbol information block.
func infoBlock() []byte {
	info := make([]byte, InfoLength)
	for i := range info {
		info[i] = byte(i*7 + 3)
	}
	return info
}

// TestEncode checks the shape of an encoded block: systematic prefix
// and full length.
func TestEncode(t *testing.T) {
	codec := New()

	info := infoBlock()
	block, err := codec.Encode(info)
	if err != nil {
		t.Fatal(err)
	}

	if len(block) != BlockLength {
		t.Fatalf("want %d symbols, got %d", BlockLength, len(block))
	}
	if !bytes.Equal(block[:InfoLength], info) {
		t.Errorf("encoding is not systematic:\nwant %v\ngot  %v",
			info, block[:InfoLength])
	}
}

// TestEncodeWrongLength checks that the encoder rejects an information
// block of the wrong size.
func TestEncodeWrongLength(t *testing.T) {
	codec := New()

	if _, err := codec.Encode(make([]byte, InfoLength-1)); err == nil {
		t.Errorf("want an error for a short information block")
	}
	if _, err := codec.Encode(make([]byte, InfoLength+1)); err == nil {
		t.Errorf("want an error for a long information block")
	}
}

// TestDecodeCleanBlock checks that an uncorrupted codeword decodes
// with no corrections.
func TestDecodeCleanBlock(t *testing.T) {
	codec := New()

	block, err := codec.Encode(infoBlock())
	if err != nil {
		t.Fatal(err)
	}

	corrected, err := codec.Decode(block, nil)
	if err != nil {
		t.Fatal(err)
	}
	if corrected != 0 {
		t.Errorf("want 0 corrections, got %d", corrected)
	}
	if !bytes.Equal(block[:InfoLength], infoBlock()) {
		t.Errorf("decoding a clean block changed the information symbols")
	}
}

// TestDecodeErasures checks recovery with the maximum number of
// erasures the code can repair.
func TestDecodeErasures(t *testing.T) {
	codec := New()

	want, err := codec.Encode(infoBlock())
	if err != nil {
		t.Fatal(err)
	}

	var testData = []struct {
		description string
		erasures    []int
	}{
		{"one information symbol", []int{5}},
		{"one parity symbol", []int{100}},
		{"all information symbols", intRange(0, InfoLength)},
		{"maximum erasures", intRange(InfoLength, BlockLength)},
	}

	for _, td := range testData {
		block := make([]byte, BlockLength)
		copy(block, want)
		for _, pos := range td.erasures {
			block[pos] = 0xaa
		}

		corrected, err := codec.Decode(block, td.erasures)
		if err != nil {
			t.Errorf("%s: %v", td.description, err)
			continue
		}
		if !bytes.Equal(block, want) {
			t.Errorf("%s: decoded block differs from the codeword", td.description)
		}
		if corrected > len(td.erasures) {
			t.Errorf("%s: %d corrections for %d erasures",
				td.description, corrected, len(td.erasures))
		}
	}
}

// TestDecodeErrors checks correction of symbol errors at positions the
// caller did not announce.
func TestDecodeErrors(t *testing.T) {
	codec := New()

	want, err := codec.Encode(infoBlock())
	if err != nil {
		t.Fatal(err)
	}

	block := make([]byte, BlockLength)
	copy(block, want)
	block[3] ^= 0x55
	block[70] ^= 0x01
	block[254] ^= 0xff

	corrected, err := codec.Decode(block, nil)
	if err != nil {
		t.Fatal(err)
	}
	if corrected != 3 {
		t.Errorf("want 3 corrections, got %d", corrected)
	}
	if !bytes.Equal(block, want) {
		t.Errorf("decoded block differs from the codeword")
	}
}

// TestDecodeErrorsAndErasures checks the combined case: some damage
// announced as erasures, some not.
func TestDecodeErrorsAndErasures(t *testing.T) {
	codec := New()

	want, err := codec.Encode(infoBlock())
	if err != nil {
		t.Fatal(err)
	}

	block := make([]byte, BlockLength)
	copy(block, want)
	erasures := intRange(40, 60)
	for _, pos := range erasures {
		block[pos] = 0
	}
	block[10] ^= 0x42
	block[200] ^= 0x17

	if _, err := codec.Decode(block, erasures); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(block, want) {
		t.Errorf("decoded block differs from the codeword")
	}
}

// TestDecodeFailure corrupts more symbols than the code can correct.
// With no erasures the decoder can repair at most 111 errors.  The
// block here is 150 symbols from its codeword and, for this seed, more
// than 111 from every other codeword, so decoding must fail rather than
// miscorrect.
func TestDecodeFailure(t *testing.T) {
	codec := New()

	block, err := codec.Encode(infoBlock())
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(1))
	positions := rng.Perm(BlockLength)[:150]
	for _, pos := range positions {
		block[pos] ^= byte(rng.Intn(255) + 1)
	}

	if _, err := codec.Decode(block, nil); !errors.Is(err, ErrDecodeFailure) {
		t.Errorf("want ErrDecodeFailure, got %v", err)
	}
}

// TestDecodeValidation checks the input checks.
func TestDecodeValidation(t *testing.T) {
	codec := New()
	block := make([]byte, BlockLength)

	if _, err := codec.Decode(make([]byte, 100), nil); err == nil {
		t.Errorf("want an error for a short block")
	}
	if _, err := codec.Decode(block, intRange(0, ParityLength+1)); err == nil {
		t.Errorf("want an error for too many erasures")
	}
	if _, err := codec.Decode(block, []int{-1}); err == nil {
		t.Errorf("want an error for a negative erasure position")
	}
	if _, err := codec.Decode(block, []int{BlockLength}); err == nil {
		t.Errorf("want an error for an erasure position past the block")
	}
}

// intRange returns the integers from low (inclusive) to high
// (exclusive).
func intRange(low, high int) []int {
	r := make([]int, 0, high-low)
	for i := low; i < high; i++ {
		r = append(r, i)
	}
	return r
}
