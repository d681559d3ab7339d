package parser

// Cursor walks the lines of one logfile. It only moves forward, except for a
// single step back when a consumed line turns out to start the next record.
type Cursor struct {
	lines []string
	ix    int // index of the line returned last, -1 before the first read
}

// NewCursor creates a cursor positioned before the first line.
func NewCursor(lines []string) *Cursor {
	return &Cursor{lines: lines, ix: -1}
}

// Next advances to and returns the next line. It returns false past the end.
func (c *Cursor) Next() (string, bool) {
	c.ix++
	if c.ix < len(c.lines) {
		return c.lines[c.ix], true
	}
	c.ix = len(c.lines)
	return "", false
}

// Peek returns the line Next would return without consuming it.
func (c *Cursor) Peek() (string, bool) {
	if c.ix+1 < len(c.lines) {
		return c.lines[c.ix+1], true
	}
	return "", false
}

// RewindOneIfTimestampLike steps back one line if line looks like the start
// of a record, so the next read sees it again. It reports whether it rewound.
func (c *Cursor) RewindOneIfTimestampLike(line string) bool {
	if !ContainsWeekday(line) || c.ix <= 0 {
		return false
	}
	c.ix--
	return true
}

// Index is the zero-based index of the line returned last.
func (c *Cursor) Index() int {
	return c.ix
}

// Remaining counts the lines from the cursor to the end of the file, using
// the cursor index (not the next line) as the starting point.
func (c *Cursor) Remaining() int {
	return len(c.lines) - c.ix
}

// Len is the total number of lines.
func (c *Cursor) Len() int {
	return len(c.lines)
}
