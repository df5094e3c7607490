package components

// List tracks a cursor and a scroll window over Len rows. Screens keep
// their own typed rows and use List only for position.
type List struct {
	Len      int
	Cursor   int
	Offset   int
	PageSize int
}

// NewList creates a list with the given page size.
func NewList(pageSize int) *List {
	return &List{PageSize: pageSize}
}

// SetLen replaces the row count and keeps the cursor inside it.
func (l *List) SetLen(n int) {
	if n < 0 {
		n = 0
	}
	l.Len = n
	l.clamp()
}

// Reset moves the cursor and window back to the first row.
func (l *List) Reset() {
	l.Cursor = 0
	l.Offset = 0
}

// SetPageSize changes the window height and scrolls so the cursor stays
// visible.
func (l *List) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	l.PageSize = n
	l.clamp()
}

// Down moves the cursor down.
func (l *List) Down() {
	l.Move(1)
}

// Up moves the cursor up.
func (l *List) Up() {
	l.Move(-1)
}

// Move shifts the cursor by delta, clamped to [0, Len-1].
func (l *List) Move(delta int) {
	l.Cursor += delta
	l.clamp()
}

func (l *List) clamp() {
	if l.Cursor > l.Len-1 {
		l.Cursor = l.Len - 1
	}
	if l.Cursor < 0 {
		l.Cursor = 0
	}
	page := l.PageSize
	if page < 1 {
		page = 1
	}
	if l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+page {
		l.Offset = l.Cursor - page + 1
	}
	if last := l.Len - page; l.Offset > last {
		l.Offset = last
	}
	if l.Offset < 0 {
		l.Offset = 0
	}
}

// Window returns the half-open range of visible rows.
func (l *List) Window() (start, end int) {
	if l.Len == 0 {
		return 0, 0
	}
	page := l.PageSize
	if page < 1 {
		page = l.Len
	}
	end = l.Offset + page
	if end > l.Len {
		end = l.Len
	}
	return l.Offset, end
}

// Selected returns the index of the selected row.
func (l *List) Selected() int {
	return l.Cursor
}

// IsSelected returns true if the given absolute index is the cursor.
func (l *List) IsSelected(absIdx int) bool {
	return l.Len > 0 && absIdx == l.Cursor
}
