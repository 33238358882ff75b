package git

import (
	"strings"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
	// ChangeID is the rewrite-stable identifier stored in the "change-id"
	// commit header, empty when the commit was not written by a tool that
	// records one.
	ChangeID string
}

func (c Commit) ShortHash() string {
	if len(c.Hash) > 12 {
		return c.Hash[:12]
	}
	return c.Hash
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	return strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
}

// DiffStats summarises the line level difference between two trees.
type DiffStats struct {
	Additions    int
	Removals     int
	ChangedFiles int
}
