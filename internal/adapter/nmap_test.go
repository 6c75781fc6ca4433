package adapter

import (
	"testing"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
)

func TestNmapAdapter_Options(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		adapter := NewNmapAdapter()
		if adapter.timeout != 10*time.Minute {
			t.Errorf("expected timeout 10m, got %v", adapter.timeout)
		}
		if adapter.logger == nil {
			t.Error("expected a default logger")
		}
	})

	t.Run("WithPortRange", func(t *testing.T) {
		adapter := NewNmapAdapter(WithPortRange("80,443,8080"))
		if adapter.portRange != "80,443,8080" {
			t.Errorf("expected port range '80,443,8080', got %s", adapter.portRange)
		}
	})

	t.Run("WithPortRange ignores invalid ranges", func(t *testing.T) {
		adapter := NewNmapAdapter(WithPortRange("80-70"))
		if adapter.portRange == "80-70" {
			t.Error("invalid port range should be ignored")
		}
	})

	t.Run("WithFastScan", func(t *testing.T) {
		adapter := NewNmapAdapter(WithServiceDetection(true), WithFastScan())
		if adapter.serviceDetection {
			t.Error("fast scan should disable service detection")
		}
		if adapter.timeout != 2*time.Minute {
			t.Errorf("expected timeout 2m, got %v", adapter.timeout)
		}
	})

	t.Run("WithSkipHostDiscovery", func(t *testing.T) {
		adapter := NewNmapAdapter(WithSkipHostDiscovery(true))
		if !adapter.skipHostDiscovery {
			t.Error("expected skipHostDiscovery")
		}
	})
}

func TestNmapAdapter_ParseResults(t *testing.T) {
	adapter := NewNmapAdapter()

	result := &nmap.Run{
		Hosts: []nmap.Host{
			{
				Addresses: []nmap.Address{
					{Addr: "192.168.1.100", AddrType: "ipv4"},
					{Addr: "AA:BB:CC:DD:EE:FF", AddrType: "mac", Vendor: "Test Vendor"},
				},
				Hostnames: []nmap.Hostname{{Name: "testhost.local"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 22, Protocol: "tcp", State: nmap.State{State: "open"}},
					{ID: 443, Protocol: "tcp", State: nmap.State{State: "closed"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.1", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "up"},
				Ports: []nmap.Port{
					{ID: 179, Protocol: "tcp", State: nmap.State{State: "open"}},
				},
			},
			{
				Addresses: []nmap.Address{{Addr: "192.168.1.7", AddrType: "ipv4"}},
				Status:    nmap.Status{State: "down"},
			},
		},
	}

	refs, err := adapter.processResults(result)
	if err != nil {
		t.Fatalf("processResults failed: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(refs))
	}

	host := refs[0]
	if host.ID != 0xC0A80164 {
		t.Errorf("expected id %d, got %d", 0xC0A80164, host.ID)
	}
	if host.Name != "testhost" {
		t.Errorf("expected name 'testhost', got %s", host.Name)
	}
	if host.ClassName != ClassServer {
		t.Errorf("expected class %s, got %s", ClassServer, host.ClassName)
	}

	router := refs[1]
	if router.Name != "192.168.1.1" {
		t.Errorf("expected the address as name, got %s", router.Name)
	}
	if router.ClassName != ClassRouter {
		t.Errorf("expected class %s, got %s", ClassRouter, router.ClassName)
	}

	if _, err := adapter.processResults(nil); err == nil {
		t.Error("expected an error for a nil result")
	}
}

func TestInferClass(t *testing.T) {
	open := func(ids ...uint16) []nmap.Port {
		var ports []nmap.Port
		for _, id := range ids {
			ports = append(ports, nmap.Port{ID: id, State: nmap.State{State: "open"}})
		}
		return ports
	}

	tests := []struct {
		name  string
		ports []nmap.Port
		want  string
	}{
		{"bgp", open(179), ClassRouter},
		{"dns with web ui", open(53, 80), ClassRouter},
		{"managed switch", open(23, 161), ClassSwitch},
		{"snmp windows box", open(23, 161, 3389), ClassServer},
		{"ssh", open(22), ClassServer},
		{"web only", open(443), ClassServer},
		{"nothing open", nil, ClassHost},
		{"closed ports", []nmap.Port{{ID: 22, State: nmap.State{State: "closed"}}}, ClassHost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferClass(tt.ports); got != tt.want {
				t.Errorf("expected class %s, got %s", tt.want, got)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	tests := []struct {
		addr    string
		want    int64
		wantErr bool
	}{
		{"10.0.0.1", 0x0A000001, false},
		{"::ffff:10.0.0.1", 0x0A000001, false},
		{"0.0.0.0", 0, true},
		{"not-an-ip", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			got, err := ObjectID(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ObjectID(%s) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ObjectID(%s) = %d, want %d", tt.addr, got, tt.want)
			}
		})
	}

	v6, err := ObjectID("2001:db8::1")
	if err != nil {
		t.Fatal(err)
	}
	if v6 <= 0xFFFFFFFF {
		t.Errorf("IPv6 id %d overlaps the IPv4 range", v6)
	}
}

func TestParsePorts(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantError bool
	}{
		{"single port", "80", false},
		{"multiple ports", "80,443,8080", false},
		{"port range", "1-1000", false},
		{"mixed", "22,80-443,8080", false},
		{"invalid port", "99999", true},
		{"invalid range", "100-50", true},
		{"non-numeric", "abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePorts(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("parsePorts(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
		})
	}
}

func TestExpandTargets(t *testing.T) {
	got, err := expandTargets([]string{"192.168.1.5/24", " host.local ", ""})
	if err != nil {
		t.Fatalf("expandTargets failed: %v", err)
	}
	if len(got) != 2 || got[0] != "192.168.1.0/24" || got[1] != "host.local" {
		t.Errorf("unexpected targets %v", got)
	}

	if _, err := expandTargets([]string{"10.0.0.0/99"}); err == nil {
		t.Error("expected an error for an invalid CIDR")
	}
}
