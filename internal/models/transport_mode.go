package models

// TransportMode is the remote protocol resolved once per run
type TransportMode int

const (
	// TransportUnavailable means no protocol could reach the remote
	TransportUnavailable TransportMode = iota
	// TransportSSH means the key-based SSH remote is reachable
	TransportSSH
	// TransportTokenHTTPS means the token-authenticated HTTPS remote is reachable
	TransportTokenHTTPS
)

// Display returns a display string for this mode
func (m TransportMode) Display() string {
	switch m {
	case TransportSSH:
		return "ssh"
	case TransportTokenHTTPS:
		return "token-https"
	default:
		return "unavailable"
	}
}
