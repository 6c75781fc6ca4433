package adapter

import (
	"time"

	"go.uber.org/zap"
)

// NmapOption is a functional option for configuring NmapAdapter
type NmapOption func(*NmapAdapter)

// WithTimeout sets the timeout for one target
func WithTimeout(d time.Duration) NmapOption {
	return func(n *NmapAdapter) {
		n.timeout = d
	}
}

// WithPortRange sets the ports to scan. Invalid ranges are ignored.
// Format: "80,443,8080" or "1-1000" or "22,80-443,8080"
func WithPortRange(ports string) NmapOption {
	return func(n *NmapAdapter) {
		if validated, err := parsePorts(ports); err == nil {
			n.portRange = validated
		}
	}
}

// WithServiceDetection enables or disables service version detection (-sV)
func WithServiceDetection(enabled bool) NmapOption {
	return func(n *NmapAdapter) {
		n.serviceDetection = enabled
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat all hosts as online (-Pn)
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NmapAdapter) {
		n.skipHostDiscovery = skip
	}
}

// WithFastScan scans only the ports needed to tell classes apart
func WithFastScan() NmapOption {
	return func(n *NmapAdapter) {
		n.portRange = "22,23,80,161,179,443"
		n.serviceDetection = false
		n.timeout = 2 * time.Minute
	}
}

// WithLogger sets the adapter logger
func WithLogger(l *zap.Logger) NmapOption {
	return func(n *NmapAdapter) {
		n.logger = l
	}
}

// WithProgress installs a per-target progress callback
func WithProgress(fn ProgressFunc) NmapOption {
	return func(n *NmapAdapter) {
		n.progress = fn
	}
}
