package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/wahlandcase/attuned.relsync/internal/models"
)

// apiBase is the REST endpoint used when only a token is available
const apiBase = "https://api.github.com"

// RestClient is the raw-HTTP fallback for repositories where the gh CLI is
// not installed. It implements the same four capability shapes the run
// needs: list, create, merge pull requests, and read a single one.
type RestClient struct {
	slug  string
	token string
	http  *http.Client
}

// NewRestClient creates a RestClient for owner/repo with a bearer token
func NewRestClient(slug, token string) *RestClient {
	return &RestClient{
		slug:  slug,
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

type restPr struct {
	Number  uint64 `json:"number"`
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	State   string `json:"state"`
	Merged  bool   `json:"merged"`
}

func (p restPr) toModel() *models.GhPr {
	state := p.State
	if p.Merged {
		state = "merged"
	}
	return &models.GhPr{
		Number: p.Number,
		URL:    p.HTMLURL,
		Title:  p.Title,
		State:  state,
	}
}

// GetExistingPR finds an open PR for head -> base, nil when none exists
func (c *RestClient) GetExistingPR(headBranch, baseBranch string) (*models.GhPr, error) {
	owner := ownerOf(c.slug)
	path := fmt.Sprintf("/repos/%s/pulls?state=open&head=%s:%s&base=%s",
		c.slug, owner, headBranch, baseBranch)

	var prs []restPr
	if err := c.do("GET", path, nil, &prs); err != nil {
		return nil, err
	}
	if len(prs) == 0 {
		return nil, nil
	}
	return prs[0].toModel(), nil
}

// CreatePR opens a pull request for head -> base
func (c *RestClient) CreatePR(headBranch, baseBranch, title, body string) (*models.GhPr, error) {
	payload := map[string]string{
		"head":  headBranch,
		"base":  baseBranch,
		"title": title,
		"body":  body,
	}

	var pr restPr
	if err := c.do("POST", "/repos/"+c.slug+"/pulls", payload, &pr); err != nil {
		return nil, err
	}
	return pr.toModel(), nil
}

// GetPR reads a single PR by number
func (c *RestClient) GetPR(prNumber uint64) (*models.GhPr, error) {
	var pr restPr
	path := "/repos/" + c.slug + "/pulls/" + strconv.FormatUint(prNumber, 10)
	if err := c.do("GET", path, nil, &pr); err != nil {
		return nil, err
	}
	return pr.toModel(), nil
}

// MergePR merges a PR with a merge commit
func (c *RestClient) MergePR(prNumber uint64) error {
	payload := map[string]string{"merge_method": "merge"}
	path := "/repos/" + c.slug + "/pulls/" + strconv.FormatUint(prNumber, 10) + "/merge"
	return c.do("PUT", path, payload, nil)
}

func (c *RestClient) do(method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("github api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github api %s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(data), 200))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parsing github api response: %w", err)
		}
	}
	return nil
}

func ownerOf(slug string) string {
	for i := 0; i < len(slug); i++ {
		if slug[i] == '/' {
			return slug[:i]
		}
	}
	return slug
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
