// Copyright 2025 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package topology derives the cluster layout from terraform output state.
package topology

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// BarmanHostname is the fixed hostname of the backup host.
const BarmanHostname = "barman"

const (
	externalIPSuffix = "_external_ip"
	internalIPSuffix = "_internal_ip"
)

var fieldSuffixes = []string{externalIPSuffix, internalIPSuffix}

var (
	// ErrMasterNotFound is returned when no host matches the requested master
	ErrMasterNotFound = errors.New("master not found")
	// ErrBarmanNotFound is returned when the state has no barman outputs
	ErrBarmanNotFound = errors.New("barman host not found")
)

// Host describes a single instance of the cluster.
type Host struct {
	Hostname   string `json:"hostname" yaml:"hostname"`
	ExternalIP string `json:"external_ip" yaml:"external_ip"`
	InternalIP string `json:"internal_ip" yaml:"internal_ip"`
	// Index is 1-based for replicas and zero for the backup host.
	Index int `json:"index,omitempty" yaml:"index,omitempty"`
}

// Vars returns the template mapping for the host.
func (h Host) Vars() map[string]interface{} {
	vars := map[string]interface{}{
		"hostname":    h.Hostname,
		"external_ip": h.ExternalIP,
		"internal_ip": h.InternalIP,
	}
	if h.Index > 0 {
		vars["index"] = h.Index
	}
	return vars
}

// Topology is the layout of a cluster: every replica, which one is the
// master, and the backup host.
type Topology struct {
	Master   Host   `json:"master" yaml:"master"`
	Standby  []Host `json:"standby" yaml:"standby"`
	Replicas []Host `json:"replicas" yaml:"replicas"`
	Barman   Host   `json:"barman" yaml:"barman"`
}

// Vars returns the template mapping for the topology.
func (t *Topology) Vars() map[string]interface{} {
	return map[string]interface{}{
		"master":   t.Master.Vars(),
		"standby":  hostVars(t.Standby),
		"replicas": hostVars(t.Replicas),
		"barman":   t.Barman.Vars(),
	}
}

func hostVars(hosts []Host) []map[string]interface{} {
	vars := make([]map[string]interface{}, 0, len(hosts))
	for _, h := range hosts {
		vars = append(vars, h.Vars())
	}
	return vars
}

type output struct {
	Value interface{} `json:"value"`
}

// Build parses terraform output state (as printed by "terraform output
// -json") and returns the topology with master as the designated master.
//
// Replica hostnames are the output keys with their field suffix stripped.
// They are sorted lexically and indexed from 1 in that order.
func Build(state []byte, master string) (*Topology, error) {
	var outputs map[string]output
	if err := json.Unmarshal(state, &outputs); err != nil {
		return nil, fmt.Errorf("failed to parse terraform output: %w", err)
	}

	seen := make(map[string]struct{})
	for key := range outputs {
		hostname, ok := hostnameFromKey(key)
		if !ok || hostname == BarmanHostname {
			continue
		}
		seen[hostname] = struct{}{}
	}

	hostnames := make([]string, 0, len(seen))
	for hostname := range seen {
		hostnames = append(hostnames, hostname)
	}
	sort.Strings(hostnames)

	topology := &Topology{
		Standby:  []Host{},
		Replicas: make([]Host, 0, len(hostnames)),
	}

	if _, ok := outputs[BarmanHostname+externalIPSuffix]; !ok {
		return nil, ErrBarmanNotFound
	}
	barman, err := hostFromOutputs(outputs, BarmanHostname)
	if err != nil {
		return nil, err
	}
	topology.Barman = barman

	foundMaster := false
	for i, hostname := range hostnames {
		host, err := hostFromOutputs(outputs, hostname)
		if err != nil {
			return nil, err
		}
		host.Index = i + 1

		topology.Replicas = append(topology.Replicas, host)
		if hostname == master {
			topology.Master = host
			foundMaster = true
		} else {
			topology.Standby = append(topology.Standby, host)
		}
	}

	if !foundMaster {
		return nil, fmt.Errorf("%w: %q does not exist in terraform state", ErrMasterNotFound, master)
	}

	return topology, nil
}

func hostnameFromKey(key string) (string, bool) {
	for _, suffix := range fieldSuffixes {
		if hostname, ok := strings.CutSuffix(key, suffix); ok && hostname != "" {
			return hostname, true
		}
	}
	return "", false
}

func hostFromOutputs(outputs map[string]output, hostname string) (Host, error) {
	externalIP, err := stringOutput(outputs, hostname+externalIPSuffix)
	if err != nil {
		return Host{}, err
	}

	internalIP, err := stringOutput(outputs, hostname+internalIPSuffix)
	if err != nil {
		return Host{}, err
	}

	return Host{
		Hostname:   hostname,
		ExternalIP: externalIP,
		InternalIP: internalIP,
	}, nil
}

func stringOutput(outputs map[string]output, key string) (string, error) {
	out, ok := outputs[key]
	if !ok {
		return "", fmt.Errorf("missing terraform output %q", key)
	}

	value, ok := out.Value.(string)
	if !ok {
		return "", fmt.Errorf("terraform output %q is not a string", key)
	}

	return value, nil
}
