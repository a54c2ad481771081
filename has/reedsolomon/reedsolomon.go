// The reedsolomon package implements the Reed-Solomon code used by the
// Galileo High Accuracy Service to protect Message Type 1 blocks.  The
// code is RS(255,32) over GF(2^8) with field polynomial
// x^8 + x^7 + x^2 + x + 1 and generator polynomial
//
//	g(x) = (x - alpha^0)(x - alpha^1) ... (x - alpha^222)
//
// where alpha is the primitive element of the field.  A transmitted
// block carries 32 information octets followed by 223 parity octets,
// one code block per vertical column of the HAS page matrix.
//
// The decoder corrects both errors and erasures.  The algorithm is the
// classic Berlekamp-Massey / Chien / Forney chain as published by Phil
// Karn (KA9Q) and used by, among many others, the FX.25 amateur radio
// FEC and the gnss-sdr receiver that this package interoperates with.
package reedsolomon

import (
	"errors"
	"fmt"
)

// BlockLength is the total number of symbols in a code block (n).
const BlockLength = 255

// InfoLength is the number of information symbols in a block (k).
const InfoLength = 32

// ParityLength is the number of parity symbols in a block (n - k),
// which is also the degree of the generator polynomial and the maximum
// number of erasures the decoder can repair.
const ParityLength = BlockLength - InfoLength

// fieldPoly is the GF(2^8) field generator polynomial
// x^8 + x^7 + x^2 + x + 1.
const fieldPoly = 0x187

// symbolBits is the symbol size in bits.
const symbolBits = 8

// fcr is the exponent of the first consecutive root of g(x).
const fcr = 0

// a0 marks the zero element in index form (log of zero is undefined).
const a0 = BlockLength

// ErrDecodeFailure is returned when the syndrome cannot be resolved:
// the block holds more corruption than the erasure list accounts for.
var ErrDecodeFailure = errors.New("reedsolomon: uncorrectable block")

// Codec holds the precomputed field tables.  A Codec is immutable after
// New returns, so a single instance may be shared between goroutines.
type Codec struct {
	// alphaTo maps index (log) form to polynomial form.
	alphaTo [BlockLength + 1]uint8

	// indexOf maps polynomial form to index form.
	indexOf [BlockLength + 1]uint8

	// genPoly holds the generator polynomial in index form, lowest
	// degree first, used by the encoder.
	genPoly [ParityLength + 1]uint8
}

// New creates a Codec with the GF(256) log/antilog tables and the HAS
// generator polynomial filled in.
func New() *Codec {
	c := Codec{}

	// Generate the field from the primitive polynomial: alpha^i for
	// i in 0..254, with multiplication by alpha being a shift and a
	// conditional reduction.
	c.indexOf[0] = a0
	c.alphaTo[a0] = 0
	sr := 1
	for i := 0; i < BlockLength; i++ {
		c.indexOf[sr] = uint8(i)
		c.alphaTo[i] = uint8(sr)
		sr <<= 1
		if sr&0x100 != 0 {
			sr ^= fieldPoly
		}
		sr &= BlockLength
	}

	// Build g(x) = product of (x - alpha^(fcr+i)) in polynomial form,
	// then convert to index form for the encoder.
	genPoly := [ParityLength + 1]uint8{}
	genPoly[0] = 1
	for i, root := 0, fcr; i < ParityLength; i, root = i+1, root+1 {
		genPoly[i+1] = 1
		for j := i; j > 0; j-- {
			if genPoly[j] != 0 {
				genPoly[j] = genPoly[j-1] ^ c.alphaTo[c.modnn(int(c.indexOf[genPoly[j]])+root)]
			} else {
				genPoly[j] = genPoly[j-1]
			}
		}
		genPoly[0] = c.alphaTo[c.modnn(int(c.indexOf[genPoly[0]])+root)]
	}
	for i := 0; i <= ParityLength; i++ {
		c.genPoly[i] = c.indexOf[genPoly[i]]
	}

	return &c
}

// modnn reduces a sum of index-form exponents modulo 255.
func (c *Codec) modnn(x int) int {
	for x >= BlockLength {
		x -= BlockLength
		x = (x >> symbolBits) + (x & BlockLength)
	}
	return x
}

// Encode produces the full 255-symbol code block for a 32-symbol
// information block: the information symbols followed by 223 parity
// symbols.  The encoding is systematic.
func (c *Codec) Encode(info []byte) ([]byte, error) {
	if len(info) != InfoLength {
		em := fmt.Sprintf("reedsolomon: information block is %d symbols, want %d", len(info), InfoLength)
		return nil, errors.New(em)
	}

	block := make([]byte, BlockLength)
	copy(block, info)
	parity := block[InfoLength:]

	for i := 0; i < InfoLength; i++ {
		feedback := c.indexOf[info[i]^parity[0]]
		if feedback != a0 {
			for j := 1; j < ParityLength; j++ {
				parity[j] ^= c.alphaTo[c.modnn(int(feedback)+int(c.genPoly[ParityLength-j]))]
			}
		}
		copy(parity[:ParityLength-1], parity[1:])
		if feedback != a0 {
			parity[ParityLength-1] = c.alphaTo[c.modnn(int(feedback)+int(c.genPoly[0]))]
		} else {
			parity[ParityLength-1] = 0
		}
	}

	return block, nil
}

// Decode corrects a 255-symbol block in place.  erasures lists the
// positions (0..254) known to be missing or untrustworthy; up to 223
// erasures can be repaired.  It returns the number of symbols that were
// corrected.  ErrDecodeFailure means the block is inconsistent with
// every codeword reachable given the erasures; the caller should
// discard the whole message.
func (c *Codec) Decode(block []byte, erasures []int) (int, error) {
	if len(block) != BlockLength {
		em := fmt.Sprintf("reedsolomon: code block is %d symbols, want %d", len(block), BlockLength)
		return 0, errors.New(em)
	}
	if len(erasures) > ParityLength {
		em := fmt.Sprintf("reedsolomon: %d erasures exceed the %d parity symbols", len(erasures), ParityLength)
		return 0, errors.New(em)
	}
	for _, pos := range erasures {
		if pos < 0 || pos >= BlockLength {
			em := fmt.Sprintf("reedsolomon: erasure position %d out of range", pos)
			return 0, errors.New(em)
		}
	}

	// Form the syndromes: evaluate the received polynomial at the
	// roots of g(x).
	var s [ParityLength]int
	for i := 0; i < ParityLength; i++ {
		s[i] = int(block[0])
	}
	for j := 1; j < BlockLength; j++ {
		for i := 0; i < ParityLength; i++ {
			if s[i] == 0 {
				s[i] = int(block[j])
			} else {
				s[i] = int(block[j]) ^ int(c.alphaTo[c.modnn(int(c.indexOf[s[i]])+fcr+i)])
			}
		}
	}

	// Convert syndromes to index form and test for the all-zero case.
	synError := 0
	for i := 0; i < ParityLength; i++ {
		synError |= s[i]
		s[i] = int(c.indexOf[s[i]])
	}
	if synError == 0 {
		// The block is already a codeword.
		return 0, nil
	}

	// Initialise lambda(x) to the erasure locator polynomial.
	var lambda [ParityLength + 1]int
	lambda[0] = 1
	if len(erasures) > 0 {
		lambda[1] = int(c.alphaTo[c.modnn(BlockLength-1-erasures[0])])
		for i := 1; i < len(erasures); i++ {
			u := c.modnn(BlockLength - 1 - erasures[i])
			for j := i + 1; j > 0; j-- {
				tmp := int(c.indexOf[lambda[j-1]])
				if tmp != a0 {
					lambda[j] ^= int(c.alphaTo[c.modnn(u+tmp)])
				}
			}
		}
	}

	var b [ParityLength + 1]int
	for i := 0; i <= ParityLength; i++ {
		b[i] = int(c.indexOf[lambda[i]])
	}

	// Berlekamp-Massey: grow lambda(x) into the combined
	// error-and-erasure locator polynomial.
	var t [ParityLength + 1]int
	el := len(erasures)
	for r := len(erasures) + 1; r <= ParityLength; r++ {
		// Discrepancy at step r, in polynomial form.
		discr := 0
		for i := 0; i < r; i++ {
			if lambda[i] != 0 && s[r-i-1] != a0 {
				discr ^= int(c.alphaTo[c.modnn(int(c.indexOf[lambda[i]])+s[r-i-1])])
			}
		}
		discrIndex := int(c.indexOf[discr])
		if discrIndex == a0 {
			// B(x) <- x*B(x)
			copy(b[1:], b[:ParityLength])
			b[0] = a0
			continue
		}
		// T(x) <- lambda(x) - discr * x * B(x)
		t[0] = lambda[0]
		for i := 0; i < ParityLength; i++ {
			if b[i] != a0 {
				t[i+1] = lambda[i+1] ^ int(c.alphaTo[c.modnn(discrIndex+b[i])])
			} else {
				t[i+1] = lambda[i+1]
			}
		}
		if 2*el <= r+len(erasures)-1 {
			el = r + len(erasures) - el
			// B(x) <- lambda(x) / discr
			for i := 0; i <= ParityLength; i++ {
				if lambda[i] == 0 {
					b[i] = a0
				} else {
					b[i] = c.modnn(int(c.indexOf[lambda[i]]) - discrIndex + BlockLength)
				}
			}
		} else {
			// B(x) <- x*B(x)
			copy(b[1:], b[:ParityLength])
			b[0] = a0
		}
		copy(lambda[:], t[:])
	}

	// Convert lambda to index form and find its degree.
	degLambda := 0
	for i := 0; i <= ParityLength; i++ {
		lambda[i] = int(c.indexOf[lambda[i]])
		if lambda[i] != a0 {
			degLambda = i
		}
	}

	// Chien search: find the roots of lambda(x).
	var reg [ParityLength + 1]int
	copy(reg[1:], lambda[1:])
	var root [ParityLength]int
	var loc [ParityLength]int
	count := 0
	for i, k := 1, 0; i <= BlockLength; i, k = i+1, c.modnn(k+1) {
		q := 1 // lambda[0] is always unity
		for j := degLambda; j > 0; j-- {
			if reg[j] != a0 {
				reg[j] = c.modnn(reg[j] + j)
				q ^= int(c.alphaTo[reg[j]])
			}
		}
		if q != 0 {
			continue
		}
		root[count] = i
		loc[count] = k
		count++
		if count == degLambda {
			break
		}
	}
	if degLambda != count {
		// deg(lambda) != number of roots: uncorrectable.
		return 0, ErrDecodeFailure
	}

	// Evaluator polynomial omega(x) = s(x)*lambda(x) mod x^223, in
	// index form.
	var omega [ParityLength + 1]int
	degOmega := 0
	for i := 0; i < ParityLength; i++ {
		tmp := 0
		j := i
		if degLambda < j {
			j = degLambda
		}
		for ; j >= 0; j-- {
			if s[i-j] != a0 && lambda[j] != a0 {
				tmp ^= int(c.alphaTo[c.modnn(s[i-j]+lambda[j])])
			}
		}
		if tmp != 0 {
			degOmega = i
		}
		omega[i] = int(c.indexOf[tmp])
	}
	omega[ParityLength] = a0

	// Forney: compute the error magnitude at each root and apply it.
	for j := count - 1; j >= 0; j-- {
		num1 := 0
		for i := degOmega; i >= 0; i-- {
			if omega[i] != a0 {
				num1 ^= int(c.alphaTo[c.modnn(omega[i]+i*root[j])])
			}
		}
		num2 := int(c.alphaTo[c.modnn(root[j]*(fcr-1)+BlockLength)])
		den := 0
		// lambda[i+1] for even i is the formal derivative of lambda.
		maxI := degLambda
		if maxI > ParityLength-1 {
			maxI = ParityLength - 1
		}
		for i := maxI & ^1; i >= 0; i -= 2 {
			if lambda[i+1] != a0 {
				den ^= int(c.alphaTo[c.modnn(lambda[i+1]+i*root[j])])
			}
		}
		if den == 0 {
			return 0, ErrDecodeFailure
		}
		if num1 != 0 {
			block[loc[j]] ^= c.alphaTo[c.modnn(int(c.indexOf[num1])+int(c.indexOf[num2])+BlockLength-int(c.indexOf[den]))]
		}
	}

	return count, nil
}
