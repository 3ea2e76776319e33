package oauth

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Loopback port range probed when no redirect port is configured.
const (
	DefaultPortStart = 18080
	DefaultPortEnd   = 18099
)

// ErrNotHTTP is returned by OpenBrowser for anything but http(s) URLs.
var ErrNotHTTP = errors.New("refusing to open non-http url")

// OpenBrowser launches the user's browser on rawURL without waiting for
// it. $BROWSER wins over the platform opener when set.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrNotHTTP, rawURL)
	}
	name, args, err := browserCommand(os.Getenv("BROWSER"), runtime.GOOS)
	if err != nil {
		return err
	}
	return exec.Command(name, append(args, u.String())...).Start()
}

// browserCommand resolves the opener for goos; the URL is appended by
// the caller.
func browserCommand(env, goos string) (string, []string, error) {
	if fields := strings.Fields(env); len(fields) > 0 {
		return fields[0], fields[1:], nil
	}
	switch goos {
	case "darwin":
		return "open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	}
	return "", nil, fmt.Errorf("no browser opener for %s; set $BROWSER", goos)
}

// FindAvailablePort returns the first port in [start, end] that 127.0.0.1
// can bind. The port is released again, so a racing process may take it.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free loopback port in %d-%d", start, end)
}
