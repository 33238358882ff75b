package jobs

// Tracker remembers the single job whose result is still wanted. Starting a
// new job supersedes the previous one, whose result is then ignored even
// though it still runs to completion. The zero value has no current job.
type Tracker struct {
	current JobID
	active  bool
}

// Begin allocates the id for a new job and makes it the current one.
func (t *Tracker) Begin() JobID {
	t.current = t.current.Next()
	t.active = true
	return t.current
}

// IsCurrent reports whether a result tagged with id should be applied.
func (t Tracker) IsCurrent(id JobID) bool {
	return t.active && id == t.current
}

// Finish clears the current job once its result was applied.
func (t *Tracker) Finish(id JobID) {
	if t.IsCurrent(id) {
		t.active = false
	}
}

// Pending reports whether a current job is outstanding.
func (t Tracker) Pending() bool {
	return t.active
}
