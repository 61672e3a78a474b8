package disasm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vmtrace/internal/bytecode"
)

// stringMask is XORed with every byte of an encoded string constant.
const stringMask = 50

// ErrMalformedNumericLiteral is returned when a bit-field of an encoded
// double cannot be parsed. The fields are fixed width so this should never
// happen on well-formed input, but it is surfaced as an error rather than
// left undefined.
var ErrMalformedNumericLiteral = errors.New("malformed numeric literal")

// DecodeString reads an obfuscated string constant: a 16-bit big-endian
// length followed by that many bytes, each XORed with stringMask. The
// post-XOR byte is taken directly as a code point, so the result stays in
// the Latin-1 range. This is a fixed per-byte deobfuscation, not UTF-8.
func DecodeString(r *bytecode.Reader) (string, error) {
	length, err := r.ReadWord16()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := uint32(0); i < length; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		sb.WriteRune(rune(b ^ stringMask))
	}
	return sb.String(), nil
}

// DecodeDouble reconstructs an IEEE-754 double from 8 bytes the way the VM
// encoder wrote it: the bytes are laid out as a 64-character bit string
// (most significant byte and bit first) and the sign/exponent/mantissa
// fields are evaluated manually. The all-ones exponent field is NOT treated
// as Infinity/NaN; it falls through the normal-number path and yields an
// ordinary computed value. Downstream output depends on that, so it stays.
func DecodeDouble(r *bytecode.Reader) (float64, error) {
	var bits strings.Builder
	for i := 0; i < 8; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		fmt.Fprintf(&bits, "%08b", b)
	}
	bitString := bits.String()

	sign := 1.0
	if bitString[0] == '1' {
		sign = -1.0
	}

	exponentField, err := strconv.ParseInt(bitString[1:12], 2, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: exponent field %q: %v", ErrMalformedNumericLiteral, bitString[1:12], err)
	}
	exponent := int(exponentField)
	mantissaBits := bitString[12:]

	var significand string
	if exponent == 0 {
		if !strings.Contains(mantissaBits, "1") {
			// Both +0 and -0 collapse to 0.0.
			return 0.0, nil
		}
		// Subnormal: no implicit leading bit.
		exponent = -1022
		significand = "0" + mantissaBits
	} else {
		exponent -= 1023
		significand = "1" + mantissaBits
	}

	mantissa := 0.0
	frac := 1.0
	for _, c := range significand {
		if c != '0' && c != '1' {
			return 0, fmt.Errorf("%w: significand bit %q", ErrMalformedNumericLiteral, c)
		}
		if c == '1' {
			mantissa += frac
		}
		frac /= 2.0
	}

	return sign * mantissa * pow2(exponent), nil
}

// pow2 computes 2^n by binary exponentiation for integer n.
func pow2(n int) float64 {
	invert := n < 0
	if invert {
		n = -n
	}

	result := 1.0
	base := 2.0
	for n > 0 {
		if n&1 == 1 {
			result *= base
		}
		base *= base
		n >>= 1
	}

	if invert {
		return 1.0 / result
	}
	return result
}
