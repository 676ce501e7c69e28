package script

const maxNumberSize = 4

// asBool is script truthiness: false for an empty value or one made only of
// zero bytes, where the last byte may also be 0x80 (negative zero).
func asBool(v []byte) bool {
	for i, b := range v {
		if b == 0 {
			continue
		}

		if i == len(v)-1 && b == 0x80 {
			return false
		}

		return true
	}

	return false
}

func fromBool(v bool) []byte {
	if v {
		return []byte{1}
	}

	return []byte{}
}

// decodeNumber reads a little endian sign and magnitude number of at most
// four bytes. Encodings with a redundant most significant byte, negative zero
// included, are rejected.
func decodeNumber(v []byte) (int64, bool) {
	if len(v) > maxNumberSize {
		return 0, false
	}

	if len(v) == 0 {
		return 0, true
	}

	last := v[len(v)-1]
	if last&0x7f == 0 {
		// the top byte only carries the sign, which is only allowed when the
		// byte below it would otherwise be read as the sign
		if len(v) == 1 || v[len(v)-2]&0x80 == 0 {
			return 0, false
		}
	}

	var result int64
	for i, b := range v {
		result |= int64(b) << (8 * i)
	}

	if last&0x80 != 0 {
		result &^= int64(0x80) << (8 * (len(v) - 1))
		return -result, true
	}

	return result, true
}

// encodeNumber is the minimal encoding of n; zero is the empty value.
func encodeNumber(n int64) []byte {
	if n == 0 {
		return []byte{}
	}

	negative := n < 0

	abs := uint64(n)
	if negative {
		abs = uint64(-n)
	}

	result := make([]byte, 0, 9)
	for abs > 0 {
		result = append(result, byte(abs&0xff))
		abs >>= 8
	}

	// a set high bit would read as the sign, so add a byte for it
	if result[len(result)-1]&0x80 != 0 {
		if negative {
			result = append(result, 0x80)
		} else {
			result = append(result, 0x00)
		}
	} else if negative {
		result[len(result)-1] |= 0x80
	}

	return result
}
