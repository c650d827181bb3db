package masavfile

// HebrewCode selects how Hebrew letters are written into the fixed-width
// name fields. Code A substitutes ASCII characters ('&' plus 'A'-'Z'); Code B
// uses the legacy single-byte values 0x80-0x9A. Both cover the 27 letters of
// the alphabet including finals.
type HebrewCode string

const (
	CodeA HebrewCode = "a"
	CodeB HebrewCode = "b"
)

// hebrewBase is aleph, the first letter of the Unicode Hebrew block's
// alphabet range. The 27 letters run contiguously from here.
const hebrewBase = rune(0x05D0)

const hebrewCount = 27

// codeATable maps alphabet offsets (aleph=0) to their Code A bytes.
var codeATable = [hebrewCount]byte{
	'&', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M',
	'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z',
}

// codeBBase is the byte assigned to aleph under Code B; the rest of the
// alphabet follows contiguously through 0x9A.
const codeBBase = byte(0x80)

// encodeRune converts one rune to its record byte. Hebrew letters go through
// the selected code table, printable ASCII passes through unchanged, and
// anything else becomes a space so the record width never shifts.
func encodeRune(r rune, code HebrewCode) byte {
	if r >= hebrewBase && r < hebrewBase+hebrewCount {
		offset := int(r - hebrewBase)
		if code == CodeB {
			return codeBBase + byte(offset)
		}
		return codeATable[offset]
	}
	if r >= 0x20 && r <= 0x7E {
		return byte(r)
	}
	return ' '
}

// EncodeText converts a string to record bytes under the given code. The
// result is one byte per rune.
func EncodeText(s string, code HebrewCode) []byte {
	runes := []rune(s)
	out := make([]byte, len(runes))
	for i, r := range runes {
		out[i] = encodeRune(r, code)
	}
	return out
}

// DecodeText is the inverse of EncodeText. Under Code A the bytes '&' and
// 'A'-'Z' decode to Hebrew letters; under Code B only the 0x80-0x9A range
// does, which leaves ASCII intact.
func DecodeText(b []byte, code HebrewCode) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = decodeByte(c, code)
	}
	return string(runes)
}

func decodeByte(c byte, code HebrewCode) rune {
	if code == CodeB {
		if c >= codeBBase && c < codeBBase+hebrewCount {
			return hebrewBase + rune(c-codeBBase)
		}
		return rune(c)
	}
	if c == '&' {
		return hebrewBase
	}
	if c >= 'A' && c <= 'Z' {
		return hebrewBase + 1 + rune(c-'A')
	}
	return rune(c)
}

// DetectCode inspects raw record bytes and reports which Hebrew code they
// use. Any byte in the Code B range settles it; otherwise Code A is assumed,
// since Code A files are pure ASCII.
func DetectCode(b []byte) HebrewCode {
	for _, c := range b {
		if c >= codeBBase && c < codeBBase+hebrewCount {
			return CodeB
		}
	}
	return CodeA
}
