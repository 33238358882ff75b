package git

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const changeIDHeader = "change-id"

// readChangeID returns the value of the "change-id" header of a commit
// object. go-git drops unknown headers while decoding, so the raw object is
// scanned instead.
func readChangeID(s storer.EncodedObjectStorer, hash plumbing.Hash) (string, error) {
	obj, err := s.EncodedObject(plumbing.CommitObject, hash)
	if err != nil {
		return "", err
	}
	r, err := obj.Reader()
	if err != nil {
		return "", err
	}
	defer r.Close()
	return parseChangeID(bufio.NewScanner(r))
}

func parseChangeID(sc *bufio.Scanner) (string, error) {
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			// end of headers
			return "", nil
		}
		// continuation of a multi-line header such as gpgsig
		if strings.HasPrefix(line, " ") {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if ok && key == changeIDHeader {
			return strings.TrimSpace(value), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("scan commit headers: %w", err)
	}
	return "", nil
}
