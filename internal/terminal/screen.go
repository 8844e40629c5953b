package terminal

import (
	"strings"
	"sync"
	"unicode/utf8"
)

const maxCSIBytes = 64

type vtState int

const (
	vtText vtState = iota
	vtEsc
	vtEscIntermediate
	vtCSI
	vtOSC
	vtOSCEsc
	vtString
	vtStringEsc
)

// Screen is a virtual terminal grid fed by a raw output stream. Chunk
// boundaries do not matter: partial escape sequences and partial UTF-8
// runes are carried over to the next Write.
type Screen struct {
	mu sync.Mutex

	cols int
	rows int

	primary   [][]Cell
	alternate [][]Cell
	grid      [][]Cell
	altActive bool
	released  bool

	cursorRow     int
	cursorCol     int
	wrapPending   bool
	cursorVisible bool
	autoWrap      bool
	attr          Attr

	scrollTop    int
	scrollBottom int

	saved savedCursor

	state   vtState
	csiBuf  []byte
	pending []byte

	replies   [][]byte
	responder func([]byte)
}

type savedCursor struct {
	row  int
	col  int
	attr Attr
}

// NewScreen builds a cols x rows grid. Non-positive dimensions fall back
// to the defaults.
func NewScreen(cols, rows int) *Screen {
	if cols <= 0 {
		cols = DefaultCols
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	screen := &Screen{
		cols: cols,
		rows: rows,
	}
	screen.reset()
	return screen
}

func (s *Screen) reset() {
	s.primary = newGrid(s.cols, s.rows)
	s.alternate = nil
	s.grid = s.primary
	s.altActive = false
	s.cursorRow = 0
	s.cursorCol = 0
	s.wrapPending = false
	s.cursorVisible = true
	s.autoWrap = true
	s.attr = 0
	s.scrollTop = 0
	s.scrollBottom = s.rows - 1
	s.saved = savedCursor{}
	s.state = vtText
	s.csiBuf = nil
	s.pending = nil
}

// SetResponder installs the callback that receives replies to device status
// and attribute queries. Replies are delivered after the write that
// triggered them has been applied.
func (s *Screen) SetResponder(fn func([]byte)) {
	s.mu.Lock()
	s.responder = fn
	s.mu.Unlock()
}

// Write applies data to the grid. It never fails; the error is there to
// satisfy io.Writer.
func (s *Screen) Write(data []byte) (int, error) {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return len(data), nil
	}
	s.apply(data)
	replies := s.replies
	s.replies = nil
	responder := s.responder
	s.mu.Unlock()

	if responder != nil {
		for _, reply := range replies {
			responder(reply)
		}
	}
	return len(data), nil
}

// Release drops the grid. Later writes are ignored and renders are empty.
func (s *Screen) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.primary = nil
	s.alternate = nil
	s.grid = nil
	s.pending = nil
	s.csiBuf = nil
	s.responder = nil
}

func (s *Screen) Size() (cols, rows int) {
	return s.cols, s.rows
}

// Cursor returns the zero-based cursor position.
func (s *Screen) Cursor() (row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorRow, s.cursorCol
}

func (s *Screen) CursorVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorVisible
}

func (s *Screen) AltScreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.altActive
}

// Cell returns the cell at row, col of the active grid.
func (s *Screen) Cell(row, col int) (Cell, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil || row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return Cell{}, false
	}
	return s.grid[row][col], true
}

// RenderRow returns row i with trailing blank cells trimmed.
func (s *Screen) RenderRow(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil || i < 0 || i >= s.rows {
		return ""
	}
	return renderCells(s.grid[i])
}

// Lines renders every row, including blank ones.
func (s *Screen) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, 0, len(s.grid))
	for _, row := range s.grid {
		lines = append(lines, renderCells(row))
	}
	return lines
}

// RenderVisible returns rows with visible content in row order.
func (s *Screen) RenderVisible() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := Snapshot{}
	for _, row := range s.grid {
		if rowIsBlank(row) {
			continue
		}
		snapshot = append(snapshot, renderCells(row))
	}
	return snapshot
}

func renderCells(row []Cell) string {
	var builder strings.Builder
	builder.Grow(len(row))
	for _, cell := range row {
		if cell.IsContinuation() {
			continue
		}
		builder.WriteRune(cell.Rune)
		builder.WriteString(cell.Mark)
	}
	return strings.TrimRight(builder.String(), " ")
}

func (s *Screen) apply(data []byte) {
	buf := data
	if len(s.pending) > 0 {
		buf = append(s.pending, data...)
		s.pending = nil
	}

	for i := 0; i < len(buf); {
		b := buf[i]
		switch s.state {
		case vtText:
			if b < 0x20 || b == 0x7f {
				s.control(b)
				i++
				continue
			}
			if b < utf8.RuneSelf {
				s.writeRune(rune(b))
				i++
				continue
			}
			if !utf8.FullRune(buf[i:]) {
				s.pending = append([]byte(nil), buf[i:]...)
				return
			}
			r, size := utf8.DecodeRune(buf[i:])
			s.writeRune(r)
			i += size
		case vtEsc:
			s.escape(b)
			i++
		case vtEscIntermediate:
			// Charset designations and DEC line attributes: one final byte.
			if b >= 0x30 && b <= 0x7e {
				s.state = vtText
			} else if b == 0x1b {
				s.state = vtEsc
			} else if b < 0x20 {
				s.control(b)
			}
			i++
		case vtCSI:
			switch {
			case b >= 0x40 && b <= 0x7e:
				s.handleCSI(b, s.csiBuf)
				s.csiBuf = s.csiBuf[:0]
				s.state = vtText
			case b == 0x1b:
				s.csiBuf = s.csiBuf[:0]
				s.state = vtEsc
			case b == 0x18 || b == 0x1a:
				s.csiBuf = s.csiBuf[:0]
				s.state = vtText
			case b < 0x20:
				s.control(b)
			default:
				if len(s.csiBuf) < maxCSIBytes {
					s.csiBuf = append(s.csiBuf, b)
				}
			}
			i++
		case vtOSC:
			if b == 0x07 || b == 0x18 || b == 0x1a {
				s.state = vtText
			} else if b == 0x1b {
				s.state = vtOSCEsc
			}
			i++
		case vtOSCEsc:
			if b == '\\' {
				s.state = vtText
			} else {
				s.state = vtOSC
			}
			i++
		case vtString:
			if b == 0x18 || b == 0x1a {
				s.state = vtText
			} else if b == 0x1b {
				s.state = vtStringEsc
			}
			i++
		case vtStringEsc:
			if b == '\\' {
				s.state = vtText
			} else {
				s.state = vtString
			}
			i++
		}
	}
}

func (s *Screen) control(b byte) {
	switch b {
	case 0x1b:
		s.state = vtEsc
	case '\r':
		s.cursorCol = 0
		s.wrapPending = false
	case '\n', 0x0b, 0x0c:
		s.index()
	case '\b':
		if s.cursorCol > 0 {
			s.cursorCol--
		}
		s.wrapPending = false
	case '\t':
		s.advanceTab()
	}
}

func (s *Screen) escape(b byte) {
	s.state = vtText
	switch b {
	case '[':
		s.state = vtCSI
		s.csiBuf = s.csiBuf[:0]
	case ']':
		s.state = vtOSC
	case 'P', 'X', '^', '_':
		s.state = vtString
	case '7':
		s.saveCursor()
	case '8':
		s.restoreCursor()
	case 'D':
		s.index()
	case 'E':
		s.cursorCol = 0
		s.index()
	case 'M':
		s.reverseIndex()
	case 'c':
		responder := s.responder
		s.reset()
		s.responder = responder
	case 0x1b:
		s.state = vtEsc
	default:
		if b >= 0x20 && b <= 0x2f {
			s.state = vtEscIntermediate
		}
	}
}

func (s *Screen) writeRune(r rune) {
	width := runeWidth(r)
	if width == 0 {
		if isCombining(r) {
			s.attachMark(r)
		}
		return
	}
	if s.wrapPending {
		s.wrapPending = false
		if s.autoWrap {
			s.cursorCol = 0
			s.index()
		}
	}
	if width == 2 && s.cursorCol == s.cols-1 {
		if !s.autoWrap || s.cols < 2 {
			return
		}
		s.clearWideAt(s.cursorRow, s.cursorCol)
		s.grid[s.cursorRow][s.cursorCol] = blankCell()
		s.cursorCol = 0
		s.index()
	}

	row := s.grid[s.cursorRow]
	s.clearWideAt(s.cursorRow, s.cursorCol)
	row[s.cursorCol] = Cell{Rune: r, Width: uint8(width), Attr: s.attr}
	if width == 2 {
		s.clearWideAt(s.cursorRow, s.cursorCol+1)
		row[s.cursorCol+1] = continuationCell(s.attr)
	}

	next := s.cursorCol + width
	if next >= s.cols {
		s.cursorCol = s.cols - 1
		s.wrapPending = true
		return
	}
	s.cursorCol = next
}

// attachMark appends a zero-width rune to the most recently written cell.
func (s *Screen) attachMark(r rune) {
	col := s.cursorCol
	if !s.wrapPending {
		col--
	}
	if col < 0 {
		return
	}
	row := s.grid[s.cursorRow]
	if row[col].IsContinuation() && col > 0 {
		col--
	}
	cell := &row[col]
	if len(cell.Mark)+utf8.RuneLen(r) > maxMarkBytes {
		return
	}
	cell.Mark += string(r)
}

// clearWideAt blanks the other half of a wide rune that overlaps col.
func (s *Screen) clearWideAt(row, col int) {
	if col < 0 || col >= s.cols {
		return
	}
	line := s.grid[row]
	cell := line[col]
	if cell.IsContinuation() && col > 0 {
		line[col-1] = blankCell()
	}
	if cell.Width == 2 && col+1 < s.cols {
		line[col+1] = blankCell()
	}
}

// index moves the cursor down one row, scrolling the region when the
// cursor sits on its bottom margin.
func (s *Screen) index() {
	s.wrapPending = false
	if s.cursorRow == s.scrollBottom {
		s.scrollUp(1)
		return
	}
	if s.cursorRow < s.rows-1 {
		s.cursorRow++
	}
}

func (s *Screen) reverseIndex() {
	s.wrapPending = false
	if s.cursorRow == s.scrollTop {
		s.scrollDown(1)
		return
	}
	if s.cursorRow > 0 {
		s.cursorRow--
	}
}

func (s *Screen) scrollUp(n int) {
	height := s.scrollBottom - s.scrollTop + 1
	if n > height {
		n = height
	}
	for i := 0; i < n; i++ {
		for row := s.scrollTop; row < s.scrollBottom; row++ {
			s.grid[row] = s.grid[row+1]
		}
		s.grid[s.scrollBottom] = blankRow(s.cols)
	}
}

func (s *Screen) scrollDown(n int) {
	height := s.scrollBottom - s.scrollTop + 1
	if n > height {
		n = height
	}
	for i := 0; i < n; i++ {
		for row := s.scrollBottom; row > s.scrollTop; row-- {
			s.grid[row] = s.grid[row-1]
		}
		s.grid[s.scrollTop] = blankRow(s.cols)
	}
}

func (s *Screen) advanceTab() {
	if s.wrapPending {
		return
	}
	next := ((s.cursorCol / 8) + 1) * 8
	if next >= s.cols {
		next = s.cols - 1
	}
	s.cursorCol = next
}

func (s *Screen) saveCursor() {
	s.saved = savedCursor{row: s.cursorRow, col: s.cursorCol, attr: s.attr}
}

func (s *Screen) restoreCursor() {
	s.cursorRow = s.saved.row
	s.cursorCol = s.saved.col
	s.attr = s.saved.attr
	s.wrapPending = false
	s.clampCursor()
}

func (s *Screen) clampCursor() {
	s.cursorRow = clampIndex(s.cursorRow, 0, s.rows-1)
	s.cursorCol = clampIndex(s.cursorCol, 0, s.cols-1)
}

func (s *Screen) setAltScreen(on, clear bool) {
	if on == s.altActive {
		return
	}
	if on {
		if s.alternate == nil || clear {
			s.alternate = newGrid(s.cols, s.rows)
		}
		s.grid = s.alternate
	} else {
		s.grid = s.primary
	}
	s.altActive = on
	s.scrollTop = 0
	s.scrollBottom = s.rows - 1
	s.wrapPending = false
}

func (s *Screen) reply(data string) {
	s.replies = append(s.replies, []byte(data))
}

func clampIndex(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
