package history

// Directory is the ordered list of revisions loaded so far, oldest first.
// It only grows by whole pages and is never reordered. The zero value is an
// empty directory.
type Directory struct {
	items []string
}

func NewDirectory(items ...string) Directory {
	return Directory{items: append([]string(nil), items...)}
}

func (d Directory) Len() int {
	return len(d.items)
}

// At returns the revision at index i, or "" when i is out of range.
func (d Directory) At(i int) string {
	if i < 0 || i >= len(d.items) {
		return ""
	}
	return d.items[i]
}

func (d Directory) Items() []string {
	return append([]string(nil), d.items...)
}

// Merge splices a page in at the end matching its direction and returns the
// new directory plus the number of items prepended, which callers add to
// every index they hold into d.
func (d Directory) Merge(p Page) (Directory, int) {
	items := make([]string, 0, len(d.items)+len(p.Items))
	if p.Direction == Forward {
		items = append(items, d.items...)
		items = append(items, p.Items...)
		return Directory{items: items}, 0
	}
	items = append(items, p.Items...)
	items = append(items, d.items...)
	return Directory{items: items}, len(p.Items)
}
