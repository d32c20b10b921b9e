package morse

// International Morse code table. Decoding goes pattern -> rune, encoding
// rune -> pattern; both maps are derived from the single table below.

var codeTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".",
	'F': "..-.", 'G': "--.", 'H': "....", 'I': "..", 'J': ".---",
	'K': "-.-", 'L': ".-..", 'M': "--", 'N': "-.", 'O': "---",
	'P': ".--.", 'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-", 'Y': "-.--",
	'Z': "--..",

	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",

	'.': ".-.-.-", ',': "--..--", '?': "..--..", '\'': ".----.",
	'!': "-.-.--", '/': "-..-.", '(': "-.--.", ')': "-.--.-",
	'&': ".-...", ':': "---...", ';': "-.-.-.", '=': "-...-",
	'+': ".-.-.", '-': "-....-", '_': "..--.-", '"': ".-..-.",
	'$': "...-..-", '@': ".--.-.",
}

var patternTable = func() map[string]rune {
	m := make(map[string]rune, len(codeTable))
	for r, p := range codeTable {
		m[p] = r
	}
	return m
}()

// Pattern returns the dot/dash pattern for a character, or false when the
// character is not in the table. Lookup is case-insensitive for letters.
func Pattern(r rune) (string, bool) {
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	p, ok := codeTable[r]
	return p, ok
}

// CharFor returns the character for a dot/dash pattern, or Unknown when the
// pattern has no table entry.
func CharFor(pattern string) (rune, bool) {
	if r, ok := patternTable[pattern]; ok {
		return r, true
	}
	return Unknown, false
}
