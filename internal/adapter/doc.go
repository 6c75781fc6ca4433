// Package adapter discovers inventory objects on the network.
//
// NmapAdapter runs nmap against CIDR ranges or hosts and turns every host
// that is up into a domain.ObjectRef. The object id is derived from the
// address so rescans update the same object, and the class is inferred from
// open ports (Router, Switch, Server, Host).
//
// Scheduler repeats a DiscoverFunc on an interval, normally one that scans
// with NmapAdapter and stores the results through the view service.
package adapter
