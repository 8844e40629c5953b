package terminal

import "strconv"

func (s *Screen) handleCSI(final byte, raw []byte) {
	private, params, intermediate := splitCSI(raw)
	if intermediate {
		return
	}
	values := parseCSIParams(params)

	if private != 0 {
		switch {
		case private == '?' && (final == 'h' || final == 'l'):
			s.setPrivateModes(values, final == 'h')
		case private == '>' && final == 'c':
			s.reply("\x1b[>0;10;1c")
		}
		return
	}

	switch final {
	case 'A':
		s.moveCursorVertical(-paramOrDefault(values, 0, 1))
	case 'B', 'e':
		s.moveCursorVertical(paramOrDefault(values, 0, 1))
	case 'C', 'a':
		s.moveCursorHorizontal(paramOrDefault(values, 0, 1))
	case 'D':
		s.moveCursorHorizontal(-paramOrDefault(values, 0, 1))
	case 'E':
		s.moveCursorVertical(paramOrDefault(values, 0, 1))
		s.cursorCol = 0
	case 'F':
		s.moveCursorVertical(-paramOrDefault(values, 0, 1))
		s.cursorCol = 0
	case 'G', '`':
		s.cursorCol = clampIndex(paramOrDefault(values, 0, 1)-1, 0, s.cols-1)
		s.wrapPending = false
	case 'd':
		s.cursorRow = clampIndex(paramOrDefault(values, 0, 1)-1, 0, s.rows-1)
		s.wrapPending = false
	case 'H', 'f':
		s.cursorRow = clampIndex(paramOrDefault(values, 0, 1)-1, 0, s.rows-1)
		s.cursorCol = clampIndex(paramOrDefault(values, 1, 1)-1, 0, s.cols-1)
		s.wrapPending = false
	case 'J':
		s.eraseDisplay(paramOrDefault(values, 0, 0))
	case 'K':
		s.eraseLine(paramOrDefault(values, 0, 0))
	case 'X':
		s.eraseChars(paramOrDefault(values, 0, 1))
	case '@':
		s.insertChars(paramOrDefault(values, 0, 1))
	case 'P':
		s.deleteChars(paramOrDefault(values, 0, 1))
	case 'L':
		s.insertLines(paramOrDefault(values, 0, 1))
	case 'M':
		s.deleteLines(paramOrDefault(values, 0, 1))
	case 'S':
		s.scrollUp(paramOrDefault(values, 0, 1))
	case 'T':
		s.scrollDown(paramOrDefault(values, 0, 1))
	case 'r':
		s.setScrollRegion(values)
	case 's':
		s.saveCursor()
	case 'u':
		s.restoreCursor()
	case 'm':
		s.setGraphics(values)
	case 'n':
		s.deviceStatus(paramOrDefault(values, 0, 0))
	case 'c':
		if paramOrDefault(values, 0, 0) == 0 {
			s.reply("\x1b[?1;2c")
		}
	}
}

// splitCSI separates a leading private marker (one of "<=>?") and reports
// whether any intermediate bytes were present.
func splitCSI(raw []byte) (private byte, params []byte, intermediate bool) {
	params = raw
	if len(params) > 0 && params[0] >= '<' && params[0] <= '?' {
		private = params[0]
		params = params[1:]
	}
	for _, b := range params {
		if b >= 0x20 && b <= 0x2f {
			return private, params, true
		}
	}
	return private, params, false
}

// parseCSIParams reads ';' or ':' separated decimal parameters. Empty
// parameters are 0.
func parseCSIParams(params []byte) []int {
	values := []int{}
	value := -1
	sawSep := false
	for _, b := range params {
		if b >= '0' && b <= '9' {
			if value < 0 {
				value = 0
			}
			if value < 1<<16 {
				value = value*10 + int(b-'0')
			}
			sawSep = false
			continue
		}
		if b == ';' || b == ':' {
			if value < 0 {
				values = append(values, 0)
			} else {
				values = append(values, value)
				value = -1
			}
			sawSep = true
		}
	}
	if value >= 0 {
		values = append(values, value)
	} else if sawSep {
		values = append(values, 0)
	}
	return values
}

func paramOrDefault(values []int, index, fallback int) int {
	if index >= len(values) || values[index] == 0 {
		return fallback
	}
	return values[index]
}

func (s *Screen) moveCursorVertical(delta int) {
	top, bottom := 0, s.rows-1
	if s.cursorRow >= s.scrollTop && s.cursorRow <= s.scrollBottom {
		top, bottom = s.scrollTop, s.scrollBottom
	}
	s.cursorRow = clampIndex(s.cursorRow+delta, top, bottom)
	s.wrapPending = false
}

func (s *Screen) moveCursorHorizontal(delta int) {
	s.cursorCol = clampIndex(s.cursorCol+delta, 0, s.cols-1)
	s.wrapPending = false
}

func (s *Screen) eraseLine(mode int) {
	line := s.grid[s.cursorRow]
	switch mode {
	case 0:
		s.clearWideAt(s.cursorRow, s.cursorCol)
		for i := s.cursorCol; i < s.cols; i++ {
			line[i] = blankCell()
		}
	case 1:
		s.clearWideAt(s.cursorRow, s.cursorCol)
		for i := 0; i <= s.cursorCol; i++ {
			line[i] = blankCell()
		}
	case 2:
		s.grid[s.cursorRow] = blankRow(s.cols)
	}
	s.wrapPending = false
}

func (s *Screen) eraseDisplay(mode int) {
	switch mode {
	case 0:
		s.eraseLine(0)
		for row := s.cursorRow + 1; row < s.rows; row++ {
			s.grid[row] = blankRow(s.cols)
		}
	case 1:
		for row := 0; row < s.cursorRow; row++ {
			s.grid[row] = blankRow(s.cols)
		}
		s.eraseLine(1)
	case 2, 3:
		for row := 0; row < s.rows; row++ {
			s.grid[row] = blankRow(s.cols)
		}
		s.wrapPending = false
	}
}

func (s *Screen) eraseChars(n int) {
	line := s.grid[s.cursorRow]
	s.clearWideAt(s.cursorRow, s.cursorCol)
	end := s.cursorCol + n
	if end > s.cols {
		end = s.cols
	}
	s.clearWideAt(s.cursorRow, end-1)
	for i := s.cursorCol; i < end; i++ {
		line[i] = blankCell()
	}
	s.wrapPending = false
}

func (s *Screen) insertChars(n int) {
	line := s.grid[s.cursorRow]
	s.clearWideAt(s.cursorRow, s.cursorCol)
	if n > s.cols-s.cursorCol {
		n = s.cols - s.cursorCol
	}
	copy(line[s.cursorCol+n:], line[s.cursorCol:s.cols-n])
	for i := s.cursorCol; i < s.cursorCol+n; i++ {
		line[i] = blankCell()
	}
	if last := line[s.cols-1]; last.Width == 2 {
		line[s.cols-1] = blankCell()
	}
	s.wrapPending = false
}

func (s *Screen) deleteChars(n int) {
	line := s.grid[s.cursorRow]
	s.clearWideAt(s.cursorRow, s.cursorCol)
	if n > s.cols-s.cursorCol {
		n = s.cols - s.cursorCol
	}
	copy(line[s.cursorCol:], line[s.cursorCol+n:])
	for i := s.cols - n; i < s.cols; i++ {
		line[i] = blankCell()
	}
	if first := line[s.cursorCol]; first.IsContinuation() {
		line[s.cursorCol] = blankCell()
	}
	s.wrapPending = false
}

func (s *Screen) insertLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	top := s.scrollTop
	s.scrollTop = s.cursorRow
	s.scrollDown(n)
	s.scrollTop = top
	s.cursorCol = 0
	s.wrapPending = false
}

func (s *Screen) deleteLines(n int) {
	if s.cursorRow < s.scrollTop || s.cursorRow > s.scrollBottom {
		return
	}
	top := s.scrollTop
	s.scrollTop = s.cursorRow
	s.scrollUp(n)
	s.scrollTop = top
	s.cursorCol = 0
	s.wrapPending = false
}

func (s *Screen) setScrollRegion(values []int) {
	top := paramOrDefault(values, 0, 1)
	bottom := paramOrDefault(values, 1, s.rows)
	if bottom > s.rows {
		bottom = s.rows
	}
	if top >= bottom {
		return
	}
	s.scrollTop = top - 1
	s.scrollBottom = bottom - 1
	s.cursorRow = 0
	s.cursorCol = 0
	s.wrapPending = false
}

func (s *Screen) setGraphics(values []int) {
	if len(values) == 0 {
		s.attr = 0
		return
	}
	for i := 0; i < len(values); i++ {
		switch value := values[i]; {
		case value == 0:
			s.attr = 0
		case value == 1:
			s.attr |= AttrBold
		case value == 4:
			s.attr |= AttrUnderline
		case value == 7:
			s.attr |= AttrInverse
		case value == 22:
			s.attr &^= AttrBold
		case value == 24:
			s.attr &^= AttrUnderline
		case value == 27:
			s.attr &^= AttrInverse
		case value == 38 || value == 48 || value == 58:
			// Extended colors carry their own sub-parameters.
			if i+1 < len(values) {
				switch values[i+1] {
				case 5:
					i += 2
				case 2:
					i += 4
				}
			}
		}
	}
}

func (s *Screen) setPrivateModes(values []int, on bool) {
	for _, mode := range values {
		switch mode {
		case 7:
			s.autoWrap = on
			if !on {
				s.wrapPending = false
			}
		case 25:
			s.cursorVisible = on
		case 47, 1047:
			s.setAltScreen(on, mode == 1047 && on)
		case 1048:
			if on {
				s.saveCursor()
			} else {
				s.restoreCursor()
			}
		case 1049:
			if on {
				s.saveCursor()
				s.setAltScreen(true, true)
			} else {
				s.setAltScreen(false, false)
				s.restoreCursor()
			}
		}
	}
}

func (s *Screen) deviceStatus(mode int) {
	switch mode {
	case 5:
		s.reply("\x1b[0n")
	case 6:
		s.reply("\x1b[" + strconv.Itoa(s.cursorRow+1) + ";" + strconv.Itoa(s.cursorCol+1) + "R")
	}
}
