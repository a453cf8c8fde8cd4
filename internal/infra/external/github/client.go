package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainRepo "labsite/internal/domain/repo"
)

const (
	defaultBaseURL     = "https://api.github.com"
	defaultUserAgent   = "labsite-bot/1.0"
	defaultHTTPTimeout = 10 * time.Second
	defaultPerPage     = 100
	defaultMaxPages    = 5
	acceptHeader       = "application/vnd.github+json"
	apiVersion         = "2022-11-28"
	maxErrorBody       = 512
)

// Config configures the Client. Exactly one of Org or User selects the owner.
type Config struct {
	HTTPClient *http.Client
	BaseURL    string
	Org        string
	User       string
	Token      string
	UserAgent  string
	PerPage    int
	MaxPages   int
}

// Client lists repositories of one GitHub owner.
type Client struct {
	httpClient *http.Client
	baseURL    string
	ownerPath  string
	token      string
	userAgent  string
	perPage    int
	maxPages   int
}

// NewClient builds a GitHub REST client.
func NewClient(cfg Config) (*Client, error) {
	org := strings.TrimSpace(cfg.Org)
	user := strings.TrimSpace(cfg.User)
	var ownerPath string
	switch {
	case org != "" && user != "":
		return nil, fmt.Errorf("github: set either org or user, not both")
	case org != "":
		ownerPath = "/orgs/" + url.PathEscape(org) + "/repos"
	case user != "":
		ownerPath = "/users/" + url.PathEscape(user) + "/repos"
	default:
		return nil, fmt.Errorf("github: org or user is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > defaultPerPage {
		perPage = defaultPerPage
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    base,
		ownerPath:  ownerPath,
		token:      strings.TrimSpace(cfg.Token),
		userAgent:  ua,
		perPage:    perPage,
		maxPages:   maxPages,
	}, nil
}

type repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description *string  `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Homepage    *string  `json:"homepage"`
	Language    *string  `json:"language"`
	Stargazers  int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Topics      []string `json:"topics"`
	UpdatedAt   string   `json:"updated_at"`
	PushedAt    string   `json:"pushed_at"`
	Archived    bool     `json:"archived"`
	Fork        bool     `json:"fork"`
}

// ListRepositories fetches every page of the owner's repositories. Any
// non-2xx response fails the whole call.
func (c *Client) ListRepositories(ctx context.Context) ([]domainRepo.Entry, error) {
	var entries []domainRepo.Entry
	for page := 1; page <= c.maxPages; page++ {
		batch, err := c.fetchPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			entries = append(entries, toEntry(r))
		}
		if len(batch) < c.perPage {
			break
		}
	}
	if entries == nil {
		entries = []domainRepo.Entry{}
	}
	return entries, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) ([]repository, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL(page), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req) // #nosec G704
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			return nil, fmt.Errorf("github: unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("github: unexpected status %d: %s", resp.StatusCode, msg)
	}

	var batch []repository
	if err := json.NewDecoder(resp.Body).Decode(&batch); err != nil {
		return nil, fmt.Errorf("github: decode repositories: %w", err)
	}
	return batch, nil
}

func (c *Client) pageURL(page int) string {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(c.perPage))
	query.Set("page", strconv.Itoa(page))
	query.Set("sort", "updated")
	return c.baseURL + c.ownerPath + "?" + query.Encode()
}

func toEntry(r repository) domainRepo.Entry {
	updated := r.PushedAt
	if updated == "" {
		updated = r.UpdatedAt
	}
	e := domainRepo.Entry{
		Name:        r.Name,
		FullName:    r.FullName,
		Description: deref(r.Description),
		URL:         r.HTMLURL,
		Homepage:    deref(r.Homepage),
		Language:    deref(r.Language),
		Stars:       r.Stargazers,
		Forks:       r.Forks,
		Topics:      r.Topics,
		UpdatedAt:   updated,
	}
	if r.Archived {
		e.Status = "archived"
	}
	return e
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
