package history

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-github/v75/github"
)

const (
	githubGraphQLURL       = "https://api.github.com/graphql"
	defaultGitHubPageSize  = 25
	githubForcePushedQuery = `query($owner: String!, $repo: String!, $pr: Int!, $cursor: String, $limit: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $pr) {
      timelineItems(last: $limit, before: $cursor, itemTypes: [HEAD_REF_FORCE_PUSHED_EVENT]) {
        edges {
          node {
            ... on HeadRefForcePushedEvent {
              beforeCommit { oid }
              afterCommit { oid }
            }
          }
        }
        pageInfo {
          hasPreviousPage
          startCursor
        }
      }
    }
  }
}`
)

// GitHub lists the head commits a pull request was force-pushed to, through
// the GraphQL timeline API.
type GitHub struct {
	client   *github.Client
	endpoint string
	owner    string
	repo     string
	number   int
	pageSize int
}

type GitHubOptions struct {
	Token string
	// PageSize defaults to 25.
	PageSize int
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Endpoint overrides the GraphQL endpoint derived from the URL host.
	Endpoint string
}

// NewGitHub parses https://<host>/<owner>/<repo>/pull/<number>[/...].
func NewGitHub(u *url.URL, opts GitHubOptions) (*GitHub, error) {
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 4 || segments[2] != "pull" {
		return nil, fmt.Errorf("%w: not a pull request URL: %s", ErrURL, u)
	}
	number, err := strconv.Atoi(segments[3])
	if err != nil {
		return nil, fmt.Errorf("%w: pull request number %q: %w", ErrURL, segments[3], err)
	}
	client := github.NewClient(opts.HTTPClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = githubGraphQLURL
		if host := u.Hostname(); host != "github.com" && host != "www.github.com" {
			endpoint = fmt.Sprintf("%s://%s/api/graphql", u.Scheme, u.Host)
		}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultGitHubPageSize
	}
	return &GitHub{
		client:   client,
		endpoint: endpoint,
		owner:    segments[0],
		repo:     segments[1],
		number:   number,
		pageSize: pageSize,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type forcePushResponse struct {
	Data struct {
		Repository struct {
			PullRequest struct {
				TimelineItems struct {
					Edges []struct {
						Node struct {
							BeforeCommit *struct {
								OID string `json:"oid"`
							} `json:"beforeCommit"`
							AfterCommit *struct {
								OID string `json:"oid"`
							} `json:"afterCommit"`
						} `json:"node"`
					} `json:"edges"`
					PageInfo struct {
						HasPreviousPage bool    `json:"hasPreviousPage"`
						StartCursor     *string `json:"startCursor"`
					} `json:"pageInfo"`
				} `json:"timelineItems"`
			} `json:"pullRequest"`
		} `json:"repository"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

func (g *GitHub) FetchHistory(ctx context.Context, token Token) (Page, error) {
	var cursor *string
	limit := g.pageSize
	switch t := token.(type) {
	case nil:
	case CursorToken:
		cursor, limit = t.Cursor, t.Limit
	default:
		return Page{}, fmt.Errorf("%w: github needs cursor pagination, got %T", ErrRequest, token)
	}

	body := graphQLRequest{
		Query: githubForcePushedQuery,
		Variables: map[string]any{
			"owner":  g.owner,
			"repo":   g.repo,
			"pr":     g.number,
			"cursor": cursor,
			"limit":  limit,
		},
	}
	req, err := g.client.NewRequest(http.MethodPost, g.endpoint, body)
	if err != nil {
		return Page{}, fmt.Errorf("%w: build graphql request: %w", ErrRequest, err)
	}
	var resp forcePushResponse
	if _, err := g.client.Do(ctx, req, &resp); err != nil {
		return Page{}, fmt.Errorf("%w: graphql: %w", ErrRequest, err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return Page{}, fmt.Errorf("%w: graphql: %s", ErrRequest, strings.Join(msgs, "; "))
	}

	page := forcePushPage(resp, g.pageSize)
	slog.Debug("github history page",
		slog.String("repo", g.owner+"/"+g.repo),
		slog.Int("pr", g.number),
		slog.Int("items", len(page.Items)),
		slog.Bool("more", page.Next != nil),
	)
	return page, nil
}

// forcePushPage turns timeline events, oldest first, into the list of head
// commits. The commit before the first push is only known on the oldest page.
// An empty page asks for pageSize events next.
func forcePushPage(resp forcePushResponse, pageSize int) Page {
	items := resp.Data.Repository.PullRequest.TimelineItems
	var commits []string
	for i, edge := range items.Edges {
		if i == 0 && !items.PageInfo.HasPreviousPage && edge.Node.BeforeCommit != nil {
			commits = append(commits, edge.Node.BeforeCommit.OID)
		}
		if edge.Node.AfterCommit != nil {
			commits = append(commits, edge.Node.AfterCommit.OID)
		}
	}
	page := Page{Items: commits, Direction: Backward}
	if items.PageInfo.HasPreviousPage {
		limit := len(items.Edges)
		if limit == 0 {
			limit = pageSize
		}
		page.Next = CursorToken{Cursor: items.PageInfo.StartCursor, Limit: limit, Dir: Backward}
	}
	return page
}
