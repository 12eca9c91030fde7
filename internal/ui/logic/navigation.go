package logic

// ListViewport tracks the visible window of the virtualized results
// list: only rows in [Offset, Offset+Height) are rendered.
type ListViewport struct {
	Offset int
	Height int
}

// EnsureVisible scrolls the window the minimal amount needed to bring
// index into view.
func (v *ListViewport) EnsureVisible(index int) {
	if v.Height < 1 {
		v.Height = 1
	}
	if index < v.Offset {
		v.Offset = index
	} else if index >= v.Offset+v.Height {
		v.Offset = index - v.Height + 1
	}
	if v.Offset < 0 {
		v.Offset = 0
	}
}

// Window returns the [start, end) row range to render for a list of
// the given length.
func (v *ListViewport) Window(length int) (int, int) {
	start := v.Offset
	if start > length {
		start = length
	}
	end := start + v.Height
	if end > length {
		end = length
	}
	return start, end
}
