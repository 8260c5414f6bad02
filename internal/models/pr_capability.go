package models

// PRCapability describes which pull-request path is available for landing
// the release branch into main
type PRCapability int

const (
	// PRUnavailable means neither gh CLI nor an API token exists; landing
	// falls back to an offline merge
	PRUnavailable PRCapability = iota
	// PRCli means the gh CLI is installed and authenticated
	PRCli
	// PRAPIOnly means no gh CLI, but a token allows raw REST calls
	PRAPIOnly
)

// Display returns a display string for this capability
func (c PRCapability) Display() string {
	switch c {
	case PRCli:
		return "cli-available"
	case PRAPIOnly:
		return "api-only"
	default:
		return "unavailable"
	}
}
