package history

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Tokens carries the static credentials handed to remote fetchers.
type Tokens struct {
	GitHub    string
	Bitbucket string
}

// ForURL picks the fetcher matching the host of a pull request URL.
func ForURL(raw string, tokens Tokens, pageSize int, client *http.Client) (Fetcher, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrURL, err)
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "":
		return nil, fmt.Errorf("%w: missing host in %q", ErrURL, raw)
	case strings.Contains(host, "bitbucket"):
		f, err := NewBitbucket(u, BitbucketOptions{Token: tokens.Bitbucket, PageSize: pageSize, HTTPClient: client})
		if err != nil {
			return nil, err
		}
		return f, nil
	case strings.Contains(host, "github"):
		f, err := NewGitHub(u, GitHubOptions{Token: tokens.GitHub, PageSize: pageSize, HTTPClient: client})
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("%w: unsupported host %q", ErrURL, host)
}
