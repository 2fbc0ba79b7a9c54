package ui

// selection is an index into the filtered view. ok is false exactly when
// the view is empty.
type selection struct {
	idx int
	ok  bool
}

func (s selection) index() (int, bool) {
	return s.idx, s.ok
}

// sync reconciles the selection with a view of n rows: the first row is
// picked when rows appear, the index is clamped when rows go away.
func (s *selection) sync(n int) {
	switch {
	case n <= 0:
		*s = selection{}
	case !s.ok:
		*s = selection{idx: 0, ok: true}
	default:
		s.idx = clampCursor(s.idx, n)
	}
}

// move shifts by delta without wrapping.
func (s *selection) move(delta, n int) {
	if n <= 0 {
		*s = selection{}
		return
	}
	*s = selection{idx: clampCursor(s.idx+delta, n), ok: true}
}

func (s *selection) top(n int) {
	if n > 0 {
		*s = selection{idx: 0, ok: true}
	}
}

func (s *selection) bottom(n int) {
	if n > 0 {
		*s = selection{idx: n - 1, ok: true}
	}
}

func (s *selection) set(i, n int) {
	if n <= 0 {
		*s = selection{}
		return
	}
	*s = selection{idx: clampCursor(i, n), ok: true}
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
