package adapter

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	"go.uber.org/zap"

	"topoview/internal/domain"
)

// ErrNoTargets is returned by Scan when it is given nothing to scan
var ErrNoTargets = errors.New("no scan targets")

// NmapAdapter discovers hosts with nmap
type NmapAdapter struct {
	timeout           time.Duration
	portRange         string
	serviceDetection  bool
	skipHostDiscovery bool
	logger            *zap.Logger
	progress          ProgressFunc
}

// NewNmapAdapter creates a new nmap-based scanning adapter
func NewNmapAdapter(opts ...NmapOption) *NmapAdapter {
	adapter := &NmapAdapter{
		timeout:          10 * time.Minute,
		portRange:        "22,23,53,80,161,179,443,445,3389,6443,8080",
		serviceDetection: false,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter
}

// Available reports whether the nmap binary can be run
func (n *NmapAdapter) Available(ctx context.Context) bool {
	scanner, err := nmap.NewScanner(
		ctx,
		nmap.WithTargets("localhost"),
		nmap.WithListScan(),
	)
	if err != nil {
		return false
	}
	_, _, err = scanner.Run()
	return err == nil
}

// Scan runs nmap against each target. A failing target is logged and
// skipped; Scan fails only when every target failed.
func (n *NmapAdapter) Scan(ctx context.Context, targets []string) ([]domain.ObjectRef, error) {
	targets, err := expandTargets(targets)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}

	n.logger.Info("nmap scan started", zap.Strings("targets", targets), zap.String("ports", n.portRange))

	seen := make(map[int64]int)
	var (
		refs    []domain.ObjectRef
		lastErr error
		failed  int
	)
	for _, target := range targets {
		found, err := n.scanTarget(ctx, target)
		if n.progress != nil {
			n.progress(target, len(found), err)
		}
		if err != nil {
			n.logger.Warn("nmap target failed", zap.String("target", target), zap.Error(err))
			lastErr = err
			failed++
			continue
		}
		for _, ref := range found {
			if i, ok := seen[ref.ID]; ok {
				refs[i] = ref
				continue
			}
			seen[ref.ID] = len(refs)
			refs = append(refs, ref)
		}
	}
	if failed == len(targets) {
		return nil, fmt.Errorf("nmap scan: %w", lastErr)
	}

	n.logger.Info("nmap scan complete", zap.Int("objects", len(refs)))
	return refs, nil
}

func (n *NmapAdapter) scanTarget(ctx context.Context, target string) ([]domain.ObjectRef, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	opts := []nmap.Option{
		nmap.WithTargets(target),
		nmap.WithPorts(n.portRange),
	}
	if n.serviceDetection {
		opts = append(opts, nmap.WithServiceInfo())
	}
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if warnings != nil && len(*warnings) > 0 {
		n.logger.Debug("nmap warnings", zap.String("target", target), zap.Strings("warnings", *warnings))
	}
	return n.processResults(result)
}

// processResults converts the hosts that are up into objects
func (n *NmapAdapter) processResults(result *nmap.Run) ([]domain.ObjectRef, error) {
	if result == nil {
		return nil, fmt.Errorf("nil scan result")
	}

	var refs []domain.ObjectRef
	for _, host := range result.Hosts {
		if len(host.Addresses) == 0 || host.Status.State != "up" {
			continue
		}

		ip := primaryAddress(host)
		id, err := ObjectID(ip)
		if err != nil {
			n.logger.Debug("skipping host", zap.String("addr", ip), zap.Error(err))
			continue
		}

		ref := domain.NewObjectRef(id, inferClass(host.Ports), hostLabel(host, ip))
		n.logger.Debug("host discovered",
			zap.String("addr", ip),
			zap.Int64("id", id),
			zap.String("class", ref.ClassName),
			zap.Ints("open_ports", openPorts(host.Ports)))
		refs = append(refs, ref)
	}
	return refs, nil
}

func primaryAddress(host nmap.Host) string {
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			return addr.Addr
		}
	}
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv6" {
			return addr.Addr
		}
	}
	return host.Addresses[0].Addr
}

// hostLabel prefers the short reverse-DNS name over the address
func hostLabel(host nmap.Host, ip string) string {
	if len(host.Hostnames) == 0 {
		return ip
	}
	hostname := host.Hostnames[0].Name
	if idx := strings.Index(hostname, "."); idx > 2 {
		return hostname[:idx]
	}
	return hostname
}

// ObjectID derives a stable positive object id from an address. IPv4
// addresses map to their 32-bit value; IPv6 addresses to the low 62 bits of
// the address with bit 62 set, keeping the two ranges apart.
func ObjectID(addr string) (int64, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return 0, err
	}
	ip = ip.Unmap()
	if ip.Is4() {
		b := ip.As4()
		id := int64(binary.BigEndian.Uint32(b[:]))
		if id == 0 {
			return 0, fmt.Errorf("unspecified address %s", addr)
		}
		return id, nil
	}
	b := ip.As16()
	low := binary.BigEndian.Uint64(b[8:])
	return int64(low&(1<<62-1) | 1<<62), nil
}

func openPorts(ports []nmap.Port) []int {
	var open []int
	for _, port := range ports {
		if port.State.State == "open" {
			open = append(open, int(port.ID))
		}
	}
	return open
}

// inferClass guesses the object class from open ports
func inferClass(ports []nmap.Port) string {
	portSet := make(map[uint16]bool)
	for _, p := range ports {
		if p.State.State == "open" {
			portSet[p.ID] = true
		}
	}

	// BGP, or DNS alongside a web UI
	if portSet[179] || (portSet[53] && (portSet[80] || portSet[443])) {
		return ClassRouter
	}

	// Managed switches answer SNMP and telnet but run no services
	if portSet[161] && portSet[23] && !portSet[445] && !portSet[3389] {
		return ClassSwitch
	}

	if portSet[22] || portSet[3389] || portSet[445] || portSet[6443] ||
		portSet[80] || portSet[443] || portSet[8080] {
		return ClassServer
	}

	return ClassHost
}

// expandTargets validates CIDR targets. Hosts pass through.
func expandTargets(targets []string) ([]string, error) {
	var expanded []string
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if strings.Contains(target, "/") {
			_, ipNet, err := net.ParseCIDR(target)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR %s: %w", target, err)
			}
			expanded = append(expanded, ipNet.String())
		} else {
			expanded = append(expanded, target)
		}
	}
	return expanded, nil
}

// parsePorts validates a port list
// Supported: "80,443,8080" or "1-1000" or "22,80-443,8080"
func parsePorts(portRange string) (string, error) {
	for _, part := range strings.Split(portRange, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil || start < 1 || start > 65535 {
				return "", fmt.Errorf("invalid port number: %s", lo)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < 1 || end > 65535 || end < start {
				return "", fmt.Errorf("invalid port number: %s", hi)
			}
			continue
		}
		port, err := strconv.Atoi(part)
		if err != nil || port < 1 || port > 65535 {
			return "", fmt.Errorf("invalid port number: %s", part)
		}
	}
	return portRange, nil
}
