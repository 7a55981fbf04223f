package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/recondor/recondor/internal/engine"
	"github.com/recondor/recondor/pkg/ports"
)

const (
	portScanTimeout = 300 * time.Second

	// Native fallback scan parameters.
	fallbackDialTimeout = 2 * time.Second
	fallbackConcurrency = 25
)

// nmapOpenRE matches nmap service lines: "443/tcp open  https  nginx 1.18.0".
var nmapOpenRE = regexp.MustCompile(`^(\d+)/(tcp|udp)\s+open\s+(\S+)(?:\s+(.+))?$`)

// highRiskPorts and mediumRiskPorts fix the port risk classification.
// Every other open port classifies low.
var (
	highRiskPorts   = map[int]bool{21: true, 23: true, 3389: true, 5900: true}
	mediumRiskPorts = map[int]bool{22: true, 25: true, 110: true, 143: true, 3306: true, 5432: true}
)

// Port scans the top TCP ports with service/version detection via nmap,
// falling back to a native TCP connect scan when nmap is not installed.
type Port struct {
	Binary string
	exec   execFunc
	dialer func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewPort builds the port scan adapter.
func NewPort() *Port {
	d := &net.Dialer{Timeout: fallbackDialTimeout}
	return &Port{Binary: "nmap", exec: runTool, dialer: d.DialContext}
}

// ID implements engine.Adapter.
func (p *Port) ID() string { return engine.ModulePort }

// Execute runs the scan and normalizes every discovered open port. The full
// ordered sequence is reported; presentation layers decide on truncation.
func (p *Port) Execute(ctx context.Context, host string, opts engine.Options) engine.ModuleResult {
	out, err := p.exec(ctx, portScanTimeout, p.Binary,
		"-sV", "--top-ports", "100", "-Pn", "-T4", host)
	if err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return p.fallbackScan(ctx, host)
		}
		return failureResult(err, engine.PortData{OpenPorts: []engine.OpenPort{}})
	}

	return engine.Completed(engine.PortData{OpenPorts: parseNmapOutput(out)})
}

// parseNmapOutput extracts open-port lines from nmap's normal output.
func parseNmapOutput(out string) []engine.OpenPort {
	open := []engine.OpenPort{}
	for _, line := range strings.Split(out, "\n") {
		m := nmapOpenRE.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		port, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		open = append(open, engine.OpenPort{
			Port:     port,
			Protocol: m[2],
			Service:  m[3],
			Version:  strings.TrimSpace(m[4]),
			Risk:     riskForPort(port),
		})
	}
	return open
}

// riskForPort applies the fixed classification table.
func riskForPort(port int) string {
	switch {
	case highRiskPorts[port]:
		return "high"
	case mediumRiskPorts[port]:
		return "medium"
	default:
		return "low"
	}
}

// fallbackScan performs a concurrent TCP connect scan over the top-100 port
// list when nmap is unavailable. Service names come from the conventional
// table; no version detection is possible this way.
func (p *Port) fallbackScan(ctx context.Context, host string) engine.ModuleResult {
	scanCtx, cancel := context.WithTimeout(ctx, portScanTimeout)
	defer cancel()

	work := make(chan int, len(ports.Top100))
	for _, port := range ports.Top100 {
		work <- port
	}
	close(work)

	var (
		mu   sync.Mutex
		open []engine.OpenPort
	)

	var wg sync.WaitGroup
	for i := 0; i < fallbackConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := range work {
				select {
				case <-scanCtx.Done():
					return
				default:
				}

				conn, err := p.dialer(scanCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
				if err != nil {
					continue
				}
				conn.Close()

				mu.Lock()
				open = append(open, engine.OpenPort{
					Port:     port,
					Protocol: "tcp",
					Service:  ports.ServiceName(port),
					Risk:     riskForPort(port),
				})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if scanCtx.Err() == context.DeadlineExceeded {
		return failureResult(
			fmt.Errorf("%w: connect scan exceeded %s", ErrToolTimeout, portScanTimeout),
			engine.PortData{OpenPorts: []engine.OpenPort{}})
	}

	sort.Slice(open, func(i, j int) bool { return open[i].Port < open[j].Port })
	if open == nil {
		open = []engine.OpenPort{}
	}
	return engine.Completed(engine.PortData{OpenPorts: open})
}
