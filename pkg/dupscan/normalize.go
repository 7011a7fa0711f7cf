package dupscan

// normalizedViews holds the four lazily-derivable projections of a
// scanned file's bytes that the detectors operate over.
type normalizedViews struct {
	raw []byte

	whitespaceStripped []byte

	wordChars     []byte
	wordCharLines []int // 1-based source line per retained character

	lineTokens     []uint64 // fingerprint per line (0 sentinel for an empty projection); parallel to lineTokenLines
	lineTokenLines []int    // (startLine, endLine) is always (n, n) for a single line
	lineWordLen    []int    // word-char count of each line, for normalizedLen accounting

	tokens []Token
}

func isASCIIWS(c byte) bool {
	switch c {
	case 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// buildNormalizedViews computes whatever subset of the four views is
// requested, to avoid paying for projections a particular detector doesn't
// need.
func buildNormalizedViews(raw []byte, needWhitespace, needWordChars, needLineTokens, needTokens bool) *normalizedViews {
	v := &normalizedViews{raw: raw}

	if needWhitespace {
		v.whitespaceStripped = stripWhitespace(raw)
	}
	if needWordChars || needLineTokens {
		v.buildWordCharsAndLines(raw)
	}
	if needTokens {
		v.tokens = Tokenize(raw)
	}
	return v
}

func stripWhitespace(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, c := range raw {
		if !isASCIIWS(c) {
			out = append(out, c)
		}
	}
	return out
}

// buildWordCharsAndLines produces the word-char stream (with per-char
// source line) and the per-line word-char projection needed for the
// line-token stream, in a single pass.
func (v *normalizedViews) buildWordCharsAndLines(raw []byte) {
	line := 1
	var curLine []byte

	flushLine := func() {
		if len(curLine) == 0 {
			// Empty projection: sentinel, dropped from matching.
			v.lineWordLen = append(v.lineWordLen, 0)
			v.lineTokenLines = append(v.lineTokenLines, line)
			v.lineTokens = append(v.lineTokens, 0)
			return
		}
		v.lineWordLen = append(v.lineWordLen, len(curLine))
		v.lineTokenLines = append(v.lineTokenLines, line)
		v.lineTokens = append(v.lineTokens, fingerprintBytes(curLine))
		curLine = nil
	}

	for _, c := range raw {
		if c == '\n' {
			flushLine()
			line++
			continue
		}
		if isWordChar(c) {
			v.wordChars = append(v.wordChars, c)
			v.wordCharLines = append(v.wordCharLines, line)
			curLine = append(curLine, c)
		}
	}
	flushLine()
}

// nonEmptyLineIndices returns the indices into v.lineTokens/lineTokenLines
// whose projection was non-empty (i.e. not the dropped sentinel).
func (v *normalizedViews) nonEmptyLineIndices() []int {
	var out []int
	for i, l := range v.lineWordLen {
		if l > 0 {
			out = append(out, i)
		}
	}
	return out
}
