// Package chunker splits text into overlapping, size-bounded chunks that
// prefer to break on natural boundaries.
package chunker

// levels lists boundary separators from most to least preferred. Separators
// in the same level compete on position only.
var levels = [][][]rune{
	{[]rune("\n\n")},
	{[]rune("\n")},
	{[]rune(". "), []rune("! "), []rune("? ")},
	{[]rune(" ")},
}

// Splitter holds a fixed chunk size and overlap, both in characters.
type Splitter struct {
	Size    int
	Overlap int
}

// New returns a Splitter for the given size and overlap.
func New(size, overlap int) *Splitter {
	return &Splitter{Size: size, Overlap: overlap}
}

// Split applies the splitter's configuration to text.
func (s *Splitter) Split(text string) []string {
	return Split(text, s.Size, s.Overlap)
}

// Split cuts text into chunks of at most maxSize runes. Each cut lands just
// after the last paragraph break in the window, else the last line break,
// sentence end or space, else exactly at maxSize. Every chunk after the first
// begins with the final overlap runes of the chunk before it, so dropping the
// first overlap runes of each later chunk and concatenating reproduces text.
func Split(text string, maxSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		return []string{text}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}

	r := []rune(text)
	chunks := make([]string, 0, len(r)/maxSize+1)

	start := 0
	for len(r)-start > maxSize {
		end := cutPoint(r, start, start+maxSize, start+overlap)
		chunks = append(chunks, string(r[start:end]))
		start = end - overlap
	}

	return append(chunks, string(r[start:]))
}

// cutPoint returns the end index for a chunk starting at start. The result
// lies in (floor, limit] so the next chunk always makes progress.
func cutPoint(r []rune, start, limit, floor int) int {
	window := r[start:limit]

	for _, level := range levels {
		best := -1
		for _, sep := range level {
			idx := lastIndex(window, sep)
			if idx < 0 {
				continue
			}
			if cut := start + idx + len(sep); cut > floor && cut > best {
				best = cut
			}
		}
		if best > 0 {
			return best
		}
	}

	return limit
}

func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
