package sms

import "unicode"

// Segment limits per GSM 03.38: a GSM 7-bit message fits 160 characters
// in a single segment or 153 per segment when multipart; UCS-2 fits 70
// and 67 respectively.
const (
	gsmSingleLimit  = 160
	gsmMultiLimit   = 153
	ucs2SingleLimit = 70
	ucs2MultiLimit  = 67
)

// gsm7Chars is the GSM 03.38 default alphabet (basic character set).
const gsm7Chars = "@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞ" +
	" !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿" +
	"abcdefghijklmnopqrstuvwxyzäöñüà "

var gsm7Set = func() map[rune]struct{} {
	set := make(map[rune]struct{}, len(gsm7Chars))
	for _, r := range gsm7Chars {
		set[r] = struct{}{}
	}
	return set
}()

// IsGSM7 reports whether text contains only GSM 7-bit basic characters.
func IsGSM7(text string) bool {
	for _, r := range text {
		if _, ok := gsm7Set[r]; !ok {
			return false
		}
	}
	return true
}

// Chunk splits text into carrier-safe segments. The encoding is chosen
// by scanning the whole text; splits prefer the last whitespace within
// the trailing fifth of a segment window and fall back to a hard cut.
// Chunks partition the input exactly, so their concatenation
// reconstructs it byte for byte. An empty string yields no chunks.
func Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	single, multi := gsmSingleLimit, gsmMultiLimit
	if !IsGSM7(text) {
		single, multi = ucs2SingleLimit, ucs2MultiLimit
	}
	if len(runes) <= single {
		return []string{text}
	}

	lookback := multi / 5
	chunks := make([]string, 0, (len(runes)+multi-1)/multi)
	for start := 0; start < len(runes); {
		end := start + multi
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpaceBoundary(runes, end, lookback); cut > start {
			end = cut
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end
	}
	return chunks
}

// lastSpaceBoundary returns the index just after the last whitespace in
// runes[end-lookback:end], or -1 when none exists there.
func lastSpaceBoundary(runes []rune, end, lookback int) int {
	for j := end; j > end-lookback && j > 0; j-- {
		if unicode.IsSpace(runes[j-1]) {
			return j
		}
	}
	return -1
}
