package grid

import "unicode/utf8"

// SerializeFrame renders the grid's viewport as a VT byte stream: position
// to (y, x)=(1,1), reset styles, then walk cells row by row emitting only
// the SGR diff from the previous cell's style before each character. Wide
// cells suppress the column immediately following them, matching how a
// real terminal never independently addresses a wide glyph's second cell.
func (g *Grid) SerializeFrame() []byte {
	var buf []byte
	buf = append(buf, "\x1b[1;1H\x1b[m"...)

	var lastStyles CharacterStyles
	lastStyles.ResetAll()

	lines := g.AsCharacterLines()
	for y, line := range lines {
		if y > 0 {
			buf = append(buf, "\r\n"...)
		}
		skipNext := false
		for _, cell := range line {
			if skipNext {
				skipNext = false
				continue
			}
			if diff, changed := lastStyles.UpdateAndReturnDiff(cell.Styles); changed {
				buf = diff.AppendSGR(buf)
			}
			buf = appendRune(buf, cell.Ch)
			if cell.IsWide() {
				skipNext = true
			}
		}
	}

	if g.cursor.Hidden {
		buf = append(buf, "\x1b[?25l"...)
	} else {
		buf = append(buf, "\x1b[?25h"...)
		buf = append(buf, cursorPositionSequence(g.cursor.Y+1, g.cursor.X+1)...)
	}
	return buf
}

func cursorPositionSequence(row, col int) []byte {
	buf := []byte("\x1b[")
	buf = appendInt(buf, row)
	buf = append(buf, ';')
	buf = appendInt(buf, col)
	return append(buf, 'H')
}

func appendRune(buf []byte, r rune) []byte {
	return utf8.AppendRune(buf, r)
}
