package models

// GhPr represents pull request info returned from the gh CLI or the REST API
type GhPr struct {
	Number uint64 `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

// IsMerged returns true once the hosting side reports the PR merged
func (p *GhPr) IsMerged() bool {
	return p != nil && (p.State == "MERGED" || p.State == "merged")
}
