// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package advisor reorders, completes, and annotates an ArchitectureSpec
// before it reaches the resolver: layer assignment, missing-dependency
// inference, pattern-driven edge suggestion, edge-routing attribute
// selection, database port control, and cluster auto-formation. It runs
// only for provider == aws; every other provider is left untouched.
package advisor

import (
	"fmt"
	"sort"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/registry"
)

// Advisor applies the architectural advisor pass against a static registry
// catalog (layers, dependencies, patterns).
//
// Thread Safety: Advisor holds no mutable state of its own beyond the
// (read-only, post-load) *registry.Registry it wraps, so it is safe for
// concurrent use across sessions.
type Advisor struct {
	reg *registry.Registry
}

// New creates an Advisor over reg.
func New(reg *registry.Registry) *Advisor {
	return &Advisor{reg: reg}
}

// Options controls advisor behavior the orchestrator derives from the
// request, not the spec itself.
type Options struct {
	// AllowSynthesis gates missing-component inference. The orchestrator
	// sets this false when the user's description explicitly restricted
	// scope (e.g. "just show me the lambda, nothing else").
	AllowSynthesis bool
}

// Advise runs the full pass and returns a new, mutated spec; the input is
// never modified in place (components/connections/clusters are copied via
// datatypes.ArchitectureSpec.Clone before any mutation), matching the
// idempotence invariant: Advise(Advise(spec)) == Advise(spec).
func (a *Advisor) Advise(spec datatypes.ArchitectureSpec, opts Options) datatypes.ArchitectureSpec {
	if spec.Provider != datatypes.ProviderAWS {
		return spec
	}
	out := spec.Clone()

	a.assignLayers(&out)
	if opts.AllowSynthesis {
		a.inferMissingComponents(&out)
		a.reassignLayers(&out) // synthesized components must sort correctly too
	}
	a.suggestPatternEdges(&out)
	a.setDatabasePorts(&out)
	a.autoFormClusters(&out)
	a.setRoutingAttrs(&out)

	return out
}

// layerOf returns the registry layer for a component's type, defaulting to
// a mid-stack layer (5, "compute") for unknown types so unrecognized
// components neither sort to the very front nor the very back.
const defaultLayer = 5

func (a *Advisor) layerOf(typeID string) int {
	if layer, ok := a.reg.Layer(datatypes.ProviderAWS, typeID); ok {
		return layer
	}
	return defaultLayer
}

// assignLayers stably re-orders components by layer; ties preserve input
// order (sort.SliceStable, never sort.Slice).
func (a *Advisor) assignLayers(spec *datatypes.ArchitectureSpec) {
	a.reassignLayers(spec)
}

func (a *Advisor) reassignLayers(spec *datatypes.ArchitectureSpec) {
	sort.SliceStable(spec.Components, func(i, j int) bool {
		return a.layerOf(spec.Components[i].Type) < a.layerOf(spec.Components[j].Type)
	})
}

// inferMissingComponents synthesizes a component's declared dependencies
// (e.g. ec2 -> {vpc, subnet}) when none of them is present anywhere in the
// spec. Synthesized components get generated ids and are marked
// Synthesized so downstream consumers (and a future advisor pass) can tell
// they were not user-authored, even though they are otherwise ordinary
// spec state (see the SPEC_FULL.md resolution of the advisor-persistence
// open question: synthesized components are not deduplicated across
// separate Advise calls beyond what "already present in this spec" buys).
func (a *Advisor) inferMissingComponents(spec *datatypes.ArchitectureSpec) {
	present := make(map[string]bool, len(spec.Components))
	for _, c := range spec.Components {
		present[c.Type] = true
	}

	synthCounter := 0
	for _, c := range append([]datatypes.Component(nil), spec.Components...) {
		deps := a.reg.Dependencies(datatypes.ProviderAWS, c.Type)
		if len(deps) == 0 {
			continue
		}
		anyPresent := false
		for _, dep := range deps {
			if present[dep] {
				anyPresent = true
				break
			}
		}
		if anyPresent {
			continue
		}
		for _, dep := range deps {
			if present[dep] {
				continue
			}
			synthCounter++
			synth := datatypes.Component{
				ID:          fmt.Sprintf("synth-%s-%d", dep, synthCounter),
				Name:        defaultDisplayName(dep),
				Type:        dep,
				Synthesized: true,
			}
			spec.Components = append(spec.Components, synth)
			present[dep] = true
		}
	}
}

func defaultDisplayName(typeID string) string {
	switch typeID {
	case "vpc":
		return "VPC"
	case "subnet":
		return "Subnet"
	default:
		return typeID
	}
}

// suggestPatternEdges checks the spec's component type set against the
// registry's closed pattern catalog (already sorted by descending
// priority at load time). When a spec's types are a superset of a
// pattern's declared components, any of that pattern's edges missing from
// the spec are added. User edges are never removed; edges are never
// duplicated across repeated Advise passes since addConnectionIfMissing
// checks the full connection set (by from/to component id pair) before appending.
func (a *Advisor) suggestPatternEdges(spec *datatypes.ArchitectureSpec) {
	typesPresent := make(map[string][]string) // type_id -> component ids of that type
	for _, c := range spec.Components {
		typesPresent[c.Type] = append(typesPresent[c.Type], c.ID)
	}

	for _, pattern := range a.reg.Patterns() {
		if !patternMatches(pattern, typesPresent) {
			continue
		}
		for _, edge := range pattern.Edges {
			fromIDs, ok1 := typesPresent[edge.From]
			toIDs, ok2 := typesPresent[edge.To]
			if !ok1 || !ok2 {
				continue
			}
			for _, fromID := range fromIDs {
				for _, toID := range toIDs {
					addConnectionIfMissing(spec, fromID, toID)
				}
			}
		}
	}
}

func patternMatches(pattern registry.Pattern, typesPresent map[string][]string) bool {
	for _, want := range pattern.Components {
		if _, ok := typesPresent[want]; !ok {
			return false
		}
	}
	return true
}

func addConnectionIfMissing(spec *datatypes.ArchitectureSpec, fromID, toID string) {
	for _, conn := range spec.Connections {
		if conn.FromID == fromID && conn.ToID == toID {
			return
		}
	}
	spec.Connections = append(spec.Connections, datatypes.Connection{
		FromID:    fromID,
		ToID:      toID,
		Direction: datatypes.ConnForward,
	})
}

// databaseTypeIDs is the closed set of type_ids the database-port-control
// rule applies to ("rds*", "dynamodb", "aurora*", "redshift", ...).
var databaseTypeIDs = map[string]bool{
	"database": true, "db": true, "rds": true, "dynamodb": true,
	"aurora": true, "redshift": true, "elasticache": true,
}

// setDatabasePorts pins tailport="s"/headport="n" on every connection
// whose target resolves to a database-family type, without overwriting a
// value the user (or a prior pass) already set.
func (a *Advisor) setDatabasePorts(spec *datatypes.ArchitectureSpec) {
	byID := make(map[string]datatypes.Component, len(spec.Components))
	for _, c := range spec.Components {
		byID[c.ID] = c
	}
	for i := range spec.Connections {
		target, ok := byID[spec.Connections[i].ToID]
		if !ok || !databaseTypeIDs[target.Type] {
			continue
		}
		attrs := spec.Connections[i].GraphvizAttrs
		if attrs == nil {
			attrs = datatypes.AttrMap{}
		}
		if _, set := attrs["tailport"]; !set {
			attrs["tailport"] = "s"
		}
		if _, set := attrs["headport"]; !set {
			attrs["headport"] = "n"
		}
		spec.Connections[i].GraphvizAttrs = attrs
	}
}

// autoFormClusters groups 3+ same-layer components that are not already
// clustered into a new cluster labelled by the layer's name. Already
// clustered components are left untouched and never moved between
// clusters or re-clustered on a later pass.
func (a *Advisor) autoFormClusters(spec *datatypes.ArchitectureSpec) {
	clustered := make(map[string]bool)
	for _, cl := range spec.Clusters {
		for _, id := range cl.ComponentIDs {
			clustered[id] = true
		}
	}

	byLayer := make(map[int][]string)
	layerOrder := []int{}
	seenLayer := make(map[int]bool)
	for _, c := range spec.Components {
		if clustered[c.ID] {
			continue
		}
		layer := a.layerOf(c.Type)
		byLayer[layer] = append(byLayer[layer], c.ID)
		if !seenLayer[layer] {
			seenLayer[layer] = true
			layerOrder = append(layerOrder, layer)
		}
	}
	sort.Ints(layerOrder)

	clusterSeq := 0
	for _, layer := range layerOrder {
		ids := byLayer[layer]
		if len(ids) < 3 {
			continue
		}
		clusterSeq++
		spec.Clusters = append(spec.Clusters, datatypes.Cluster{
			ID:           fmt.Sprintf("auto-cluster-%s-%d", layerName(layer), clusterSeq),
			Name:         layerName(layer),
			ComponentIDs: ids,
		})
	}
}

func layerName(layer int) string {
	switch {
	case layer <= 0:
		return "edge"
	case layer <= 3:
		return "network"
	case layer == 4:
		return "app"
	case layer == 5:
		return "compute"
	case layer == 6:
		return "integration"
	case layer == 7:
		return "data"
	case layer == 8:
		return "analytics"
	default:
		return "security"
	}
}

// routingTier holds one row of the edge-routing attribute policy table,
// keyed by an inclusive connection-count lower bound.
type routingTier struct {
	minConnections int
	splines        string
	concentrate    string // empty means "not set"
	nodesep        string
	ranksep        string
}

// routingTable is ordered from the highest connection-count tier down, so
// the first matching tier (by minConnections) wins.
var routingTable = []routingTier{
	{minConnections: 16, splines: "polyline", concentrate: "true", nodesep: "1.0", ranksep: "1.5"},
	{minConnections: 10, splines: "ortho", nodesep: "0.9", ranksep: "1.3"},
	{minConnections: 5, splines: "polyline", nodesep: "0.8", ranksep: "1.2"},
	{minConnections: 0, splines: "polyline", nodesep: "0.8", ranksep: "1.0"},
}

// setRoutingAttrs selects graph/node edge attributes from the
// connection-count policy table, never overriding a value the user
// already set (Merge keeps "a"'s values on conflict — see
// datatypes.GraphvizAttrs.Merge).
func (a *Advisor) setRoutingAttrs(spec *datatypes.ArchitectureSpec) {
	tier := routingTable[len(routingTable)-1]
	for _, t := range routingTable {
		if len(spec.Connections) >= t.minConnections {
			tier = t
			break
		}
	}

	computed := datatypes.GraphvizAttrs{
		GraphAttr: datatypes.AttrMap{
			"splines": tier.splines,
			"overlap": "false",
		},
		NodeAttr: datatypes.AttrMap{
			"fixedsize": "shape",
			"width":     "1.0",
			"height":    "1.0",
		},
	}
	if tier.concentrate != "" {
		computed.GraphAttr["concentrate"] = tier.concentrate
	}
	if tier.nodesep != "" {
		computed.GraphAttr["nodesep"] = tier.nodesep
	}
	if tier.ranksep != "" {
		computed.GraphAttr["ranksep"] = tier.ranksep
	}

	spec.GraphvizAttrs = spec.GraphvizAttrs.Merge(computed)
}
