package source

import (
	"net"
	"net/url"
	"strings"

	"github.com/hannajonsd/bundle-audit/lockfile"
)

// Reason explains why a source is untrusted
type Reason string

const (
	Unencrypted         Reason = "unencrypted transport"
	UnencryptedToPublic Reason = "unencrypted transport to public registry"
)

// PublicRegistries are the hosts of the default public gem registry
var PublicRegistries = []string{"rubygems.org", "gems.rubyforge.org", "index.rubygems.org"}

var secureSchemes = map[string]bool{
	"https":     true,
	"git+https": true,
	"ssh":       true,
	"git+ssh":   true,
	"ssh+git":   true,
	"file":      true,
}

// urlSchemes are the schemes that make "scheme:rest" a URL rather than scp-style host:path
var urlSchemes = map[string]bool{
	"http":     true,
	"git":      true,
	"ftp":      true,
	"git+http": true,
}

// Validator decides whether a dependency source is trusted. It does no I/O.
type Validator struct {
	// TrustInternalHosts skips plain-transport sources on localhost or private addresses
	TrustInternalHosts bool
}

// NewValidator creates a strict validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every remote of a lockfile source; path sources are local and always trusted
func (v *Validator) Validate(src lockfile.Source) []Reason {
	if src.Kind == lockfile.KindPath {
		return nil
	}

	var reasons []Reason
	for _, remote := range src.Remotes {
		reasons = append(reasons, v.ValidateURI(remote)...)
	}
	return reasons
}

// ValidateURI returns the reasons a single source URI is untrusted, or nil
func (v *Validator) ValidateURI(raw string) []Reason {
	raw = strings.TrimSpace(raw)
	if raw == "" || isSCP(raw) {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// relative paths and bare directories
		return nil
	}

	scheme := strings.ToLower(u.Scheme)
	if secureSchemes[scheme] {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	if host == "" && u.Opaque != "" {
		// "http:rubygems.org/" has no authority but still names a host
		host, _, _ = strings.Cut(strings.ToLower(u.Opaque), "/")
	}
	if v.TrustInternalHosts && isInternal(host) {
		return nil
	}

	reasons := []Reason{Unencrypted}
	if scheme == "http" && isPublicRegistry(host) {
		reasons = append(reasons, UnencryptedToPublic)
	}
	return reasons
}

// isSCP matches git's scp-like syntax, e.g. git@github.com:rails/rails.git
func isSCP(raw string) bool {
	if strings.Contains(raw, "://") {
		return false
	}
	colon := strings.Index(raw, ":")
	if colon <= 0 {
		return false
	}
	if slash := strings.Index(raw, "/"); slash != -1 && slash < colon {
		return false
	}
	prefix := strings.ToLower(raw[:colon])
	if strings.Contains(prefix, "@") {
		return true
	}
	return !urlSchemes[prefix] && !secureSchemes[prefix]
}

func isPublicRegistry(host string) bool {
	for _, registry := range PublicRegistries {
		if host == registry {
			return true
		}
	}
	return false
}

func isInternal(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate()
}
