package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Bitbucket lists the revisions a Bitbucket Server pull request was
// rescoped to, through its activities API.
type Bitbucket struct {
	client   *http.Client
	token    string
	pageSize int
	host     string
	project  string
	repo     string
	id       string
}

type BitbucketOptions struct {
	Token string
	// PageSize is sent as the limit of the first request, zero leaves it to
	// the server.
	PageSize   int
	HTTPClient *http.Client
}

// NewBitbucket parses
// https://<host>/projects/<project>/repos/<repo>/pull-requests/<id>[/...].
func NewBitbucket(u *url.URL, opts BitbucketOptions) (*Bitbucket, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 6 || segments[0] != "projects" || segments[2] != "repos" || segments[4] != "pull-requests" {
		return nil, fmt.Errorf("%w: not a pull request URL: %s", ErrURL, u)
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Bitbucket{
		client:   client,
		token:    opts.Token,
		pageSize: opts.PageSize,
		host:     fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		project:  segments[1],
		repo:     segments[3],
		id:       segments[5],
	}, nil
}

type activityPage struct {
	IsLastPage bool       `json:"isLastPage"`
	Limit      *int       `json:"limit"`
	Start      int        `json:"start"`
	Values     []activity `json:"values"`
}

type activity struct {
	Action           string `json:"action"`
	FromHash         string `json:"fromHash"`
	PreviousFromHash string `json:"previousFromHash"`
}

func (b *Bitbucket) FetchHistory(ctx context.Context, token Token) (Page, error) {
	offset := 0
	var limit *int
	switch t := token.(type) {
	case nil:
		if b.pageSize > 0 {
			size := b.pageSize
			limit = &size
		}
	case OffsetToken:
		offset, limit = t.Offset, t.Limit
	default:
		return Page{}, fmt.Errorf("%w: bitbucket needs offset pagination, got %T", ErrRequest, token)
	}

	endpoint := fmt.Sprintf("%s/rest/api/latest/projects/%s/repos/%s/pull-requests/%s/activities?start=%d",
		b.host, url.PathEscape(b.project), url.PathEscape(b.repo), url.PathEscape(b.id), offset)
	if limit != nil {
		endpoint += "&limit=" + strconv.Itoa(*limit)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Page{}, fmt.Errorf("%w: %s: %s", ErrRequest, resp.Status, strings.TrimSpace(string(msg)))
	}
	var activities activityPage
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return Page{}, fmt.Errorf("%w: decode activities: %w", ErrRequest, err)
	}

	page := rescopePage(activities)
	slog.Debug("bitbucket history page",
		slog.String("repo", b.project+"/"+b.repo),
		slog.String("pr", b.id),
		slog.Int("start", offset),
		slog.Int("items", len(page.Items)),
		slog.Bool("more", page.Next != nil),
	)
	return page, nil
}

// rescopePage turns activities, newest first, into the oldest-first list of
// source branch heads. The head before the first rescope is only known on the
// last page.
func rescopePage(p activityPage) Page {
	var rescopes []activity
	for _, a := range p.Values {
		if a.Action == "RESCOPED" {
			rescopes = append(rescopes, a)
		}
	}
	var commits []string
	for i := len(rescopes) - 1; i >= 0; i-- {
		if p.IsLastPage && i == len(rescopes)-1 {
			commits = append(commits, rescopes[i].PreviousFromHash)
		}
		commits = append(commits, rescopes[i].FromHash)
	}
	page := Page{Items: commits, Direction: Backward}
	if !p.IsLastPage {
		size := len(p.Values)
		if p.Limit != nil {
			size = *p.Limit
		}
		page.Next = OffsetToken{Offset: p.Start + size, Limit: p.Limit}
	}
	return page
}
