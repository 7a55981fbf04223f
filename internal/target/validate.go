// Package target sanitizes raw user-submitted scan targets into canonical
// hosts, rejecting anything resembling traversal or shell injection.
package target

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid marks every validation rejection so callers can classify it.
var ErrInvalid = errors.New("invalid target")

var (
	schemeRE   = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	hostnameRE = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?$`)
	ipv4RE     = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
)

// Shell metacharacters that must never reach an external tool invocation.
const shellMetachars = ";|&$`<>\n\r"

var rootPrefixes = []string{"/etc/", "/var/", "/tmp/", "/proc/"}

// Validate sanitizes a raw user string into a canonical host or IPv4 address.
// It strips a leading scheme, userinfo and a trailing port, then rejects traversal
// segments, shell metacharacters, NUL bytes, filesystem-root prefixes,
// Windows drive prefixes and file:// URLs. Whatever remains must match a
// DNS hostname grammar or a dotted-quad IPv4 address. Pure function.
func Validate(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty target", ErrInvalid)
	}
	if strings.ContainsRune(s, 0) {
		return "", fmt.Errorf("%w: contains NUL byte", ErrInvalid)
	}
	if strings.HasPrefix(strings.ToLower(s), "file://") {
		return "", fmt.Errorf("%w: file:// scheme not allowed", ErrInvalid)
	}

	s = schemeRE.ReplaceAllString(s, "")

	if strings.Contains(s, "..") {
		return "", fmt.Errorf("%w: path traversal sequence", ErrInvalid)
	}
	if strings.ContainsAny(s, shellMetachars) {
		return "", fmt.Errorf("%w: shell metacharacter", ErrInvalid)
	}
	for _, p := range rootPrefixes {
		if strings.HasPrefix(s, p) {
			return "", fmt.Errorf("%w: filesystem path", ErrInvalid)
		}
	}
	if len(s) >= 2 && s[1] == ':' && isASCIILetter(s[0]) {
		return "", fmt.Errorf("%w: windows drive path", ErrInvalid)
	}

	// Host component only: drop any path, then userinfo, then a trailing
	// :port. Userinfo must go first or its ':' would be taken for a port
	// separator.
	host := s
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	if i := strings.LastIndexByte(host, '@'); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host == "" {
		return "", fmt.Errorf("%w: no host component", ErrInvalid)
	}

	if m := ipv4RE.FindStringSubmatch(host); m != nil {
		for _, octet := range m[1:] {
			if n, _ := strconv.Atoi(octet); n > 255 {
				return "", fmt.Errorf("%w: malformed IPv4 address", ErrInvalid)
			}
		}
		return host, nil
	}

	if !hostnameRE.MatchString(host) {
		return "", fmt.Errorf("%w: not a valid hostname or IPv4 address", ErrInvalid)
	}
	return host, nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
