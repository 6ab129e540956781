package installer

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

var allowedGitProtocols = map[string]bool{
	"https": true,
	"http":  true,
	"ssh":   true,
	"git":   true,
}

// ValidateGitURL accepts remote git endpoints only: https, http, ssh, git and
// scp-like user@host:path forms.
func ValidateGitURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty git url")
	}
	if strings.HasPrefix(raw, "-") || strings.ContainsAny(raw, "\n\r\x00") {
		return fmt.Errorf("git url %q contains forbidden characters", raw)
	}

	ep, err := transport.NewEndpoint(raw)
	if err != nil {
		return fmt.Errorf("invalid git url %q: %w", raw, err)
	}
	if !allowedGitProtocols[ep.Protocol] {
		return fmt.Errorf("git url %q uses unsupported protocol %q", raw, ep.Protocol)
	}
	if ep.Host == "" {
		return fmt.Errorf("git url %q has no host", raw)
	}
	return nil
}
