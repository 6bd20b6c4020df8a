package codec

// CP_DEV is a single-byte device codepage, close to Windows-1251 in the
// printable Cyrillic range the vendor manual uses for text fields. It is
// implemented here as a hand-written byte<->rune table rather than pulling
// in golang.org/x/text/encoding/charmap: the transform this module needs is
// a fixed single-byte lookup over 256 code points, not general Unicode
// normalization, so the extra dependency would bring machinery (decoders,
// encoders, transform.Chain) this package never exercises.
var cpDevToRune = func() [256]rune {
	var t [256]rune
	for i := 0; i < 0x80; i++ {
		t[i] = rune(i)
	}
	// 0x80-0xFF: Cyrillic block, Windows-1251 layout for the range the
	// vendor's printable text fields actually use (А-я, Ёё).
	cyrillicUpper := []rune("АБВГДЕЖЗИЙКЛМНОПРСТУФХЦЧШЩЪЫЬЭЮЯ")
	cyrillicLower := []rune("абвгдежзийклмнопрстуфхцчшщъыьэюя")
	for i, r := range cyrillicUpper {
		t[0xC0+i] = r
	}
	for i, r := range cyrillicLower {
		t[0xE0+i] = r
	}
	t[0xA8] = 'Ё'
	t[0xB8] = 'ё'
	return t
}()

var runeToCPDev = func() map[rune]byte {
	m := make(map[rune]byte, 256)
	for b, r := range cpDevToRune {
		if r != 0 || b == 0 {
			m[r] = byte(b)
		}
	}
	return m
}()

// Encode transforms s into CP_DEV bytes, substituting '?' for any rune the
// device codepage cannot represent.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := runeToCPDev[r]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}

// Decode transforms CP_DEV bytes back into a string.
func Decode(b []byte) string {
	out := make([]rune, 0, len(b))
	for _, c := range b {
		out = append(out, cpDevToRune[c])
	}
	return string(out)
}
