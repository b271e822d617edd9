// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire and domain types shared across the
// arcgen service: the architecture spec, its components, connections and
// clusters, and the error taxonomy raised by the resolver, advisor and
// engine.
package datatypes

import (
	"fmt"
)

// Provider is a cloud vendor namespace selecting the icon set.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"
	ProviderGCP   Provider = "gcp"
)

// ValidProviders is the closed set accepted on the wire.
var ValidProviders = map[Provider]bool{
	ProviderAWS:   true,
	ProviderAzure: true,
	ProviderGCP:   true,
}

// Direction is the renderer layout direction.
type Direction string

const (
	DirectionLR Direction = "LR"
	DirectionTB Direction = "TB"
	DirectionBT Direction = "BT"
	DirectionRL Direction = "RL"
)

var validDirections = map[Direction]bool{
	DirectionLR: true,
	DirectionTB: true,
	DirectionBT: true,
	DirectionRL: true,
}

// OutFormat is an artifact output format.
type OutFormat string

const (
	FormatPNG OutFormat = "png"
	FormatSVG OutFormat = "svg"
	FormatPDF OutFormat = "pdf"
	FormatDOT OutFormat = "dot"
)

var validOutFormats = map[OutFormat]bool{
	FormatPNG: true,
	FormatSVG: true,
	FormatPDF: true,
	FormatDOT: true,
}

// ConnectionDirection selects the renderer edge operator.
type ConnectionDirection string

const (
	ConnForward       ConnectionDirection = "forward"
	ConnBackward      ConnectionDirection = "backward"
	ConnBidirectional ConnectionDirection = "bidirectional"
)

// AttrMap is an opaque string-keyed Graphviz attribute override map.
type AttrMap map[string]string

// GraphvizAttrs bundles the three attribute maps the engine threads through
// to the renderer at graph scope.
type GraphvizAttrs struct {
	GraphAttr AttrMap `json:"graph_attr,omitempty" yaml:"graph_attr,omitempty"`
	NodeAttr  AttrMap `json:"node_attr,omitempty" yaml:"node_attr,omitempty"`
	EdgeAttr  AttrMap `json:"edge_attr,omitempty" yaml:"edge_attr,omitempty"`
}

// Merge returns a copy of a with every key from b set, b taking precedence
// only where a does not already define the key. User-supplied values (a)
// are never overridden by advisor-computed values (b).
func (a GraphvizAttrs) Merge(b GraphvizAttrs) GraphvizAttrs {
	out := GraphvizAttrs{
		GraphAttr: mergeAttrMap(a.GraphAttr, b.GraphAttr),
		NodeAttr:  mergeAttrMap(a.NodeAttr, b.NodeAttr),
		EdgeAttr:  mergeAttrMap(a.EdgeAttr, b.EdgeAttr),
	}
	return out
}

func mergeAttrMap(user, computed AttrMap) AttrMap {
	if user == nil && computed == nil {
		return nil
	}
	out := make(AttrMap, len(user)+len(computed))
	for k, v := range computed {
		out[k] = v
	}
	for k, v := range user {
		out[k] = v
	}
	return out
}

// Component is a node in an architecture diagram.
type Component struct {
	ID            string            `json:"id" validate:"required"`
	Name          string            `json:"name" validate:"required"`
	Type          string            `json:"type" validate:"required"`
	Provider      Provider          `json:"provider,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	GraphvizAttrs AttrMap           `json:"graphviz_attrs,omitempty"`

	// Synthesized marks a component the advisor added to satisfy a missing
	// dependency. It is ordinary spec state once set; nothing downstream
	// treats it specially beyond the advisor's own re-synthesis check.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Connection is a directed or bidirectional edge between two components.
type Connection struct {
	FromID        string              `json:"from_id" validate:"required"`
	ToID          string              `json:"to_id" validate:"required"`
	Label         string              `json:"label,omitempty"`
	Direction     ConnectionDirection `json:"direction,omitempty"`
	GraphvizAttrs AttrMap             `json:"graphviz_attrs,omitempty"`
}

// Cluster is a visual grouping of components, possibly nested via ParentID.
type Cluster struct {
	ID            string        `json:"id" validate:"required"`
	Name          string        `json:"name" validate:"required"`
	ComponentIDs  []string      `json:"component_ids,omitempty"`
	ParentID      string        `json:"parent_id,omitempty"`
	GraphvizAttrs GraphvizAttrs `json:"graphviz_attrs,omitempty"`
}

// ArchitectureSpec is the central value passed between the LLM/user input,
// the advisor, the resolver and the engine.
type ArchitectureSpec struct {
	Title         string        `json:"title" validate:"required,max=200"`
	Provider      Provider      `json:"provider" validate:"required"`
	Direction     Direction     `json:"direction,omitempty"`
	OutFormat     []OutFormat   `json:"out_format,omitempty"`
	Components    []Component   `json:"components"`
	Connections   []Connection  `json:"connections,omitempty"`
	Clusters      []Cluster     `json:"clusters,omitempty"`
	GraphvizAttrs GraphvizAttrs `json:"graphviz_attrs,omitempty"`
}

// Clone returns a deep copy of the spec, used to snapshot specs onto the
// undo stack and to compare round-trip/idempotence properties in tests.
func (s ArchitectureSpec) Clone() ArchitectureSpec {
	out := s
	out.OutFormat = append([]OutFormat(nil), s.OutFormat...)
	out.Components = make([]Component, len(s.Components))
	for i, c := range s.Components {
		out.Components[i] = c
		out.Components[i].Metadata = copyStringMap(c.Metadata)
		out.Components[i].GraphvizAttrs = copyAttrMap(c.GraphvizAttrs)
	}
	out.Connections = make([]Connection, len(s.Connections))
	for i, c := range s.Connections {
		out.Connections[i] = c
		out.Connections[i].GraphvizAttrs = copyAttrMap(c.GraphvizAttrs)
	}
	out.Clusters = make([]Cluster, len(s.Clusters))
	for i, c := range s.Clusters {
		out.Clusters[i] = c
		out.Clusters[i].ComponentIDs = append([]string(nil), c.ComponentIDs...)
		out.Clusters[i].GraphvizAttrs = GraphvizAttrs{
			GraphAttr: copyAttrMap(c.GraphvizAttrs.GraphAttr),
			NodeAttr:  copyAttrMap(c.GraphvizAttrs.NodeAttr),
			EdgeAttr:  copyAttrMap(c.GraphvizAttrs.EdgeAttr),
		}
	}
	out.GraphvizAttrs = GraphvizAttrs{
		GraphAttr: copyAttrMap(s.GraphvizAttrs.GraphAttr),
		NodeAttr:  copyAttrMap(s.GraphvizAttrs.NodeAttr),
		EdgeAttr:  copyAttrMap(s.GraphvizAttrs.EdgeAttr),
	}
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyAttrMap(m AttrMap) AttrMap {
	if m == nil {
		return nil
	}
	out := make(AttrMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CoerceMainPathDefaults applies the main-path defaults the orchestrator is
// required to enforce: direction is always coerced to LR regardless of what
// the request carried, and an empty out_format defaults to png.
func (s *ArchitectureSpec) CoerceMainPathDefaults() {
	s.Direction = DirectionLR
	if len(s.OutFormat) == 0 {
		s.OutFormat = []OutFormat{FormatPNG}
	}
}

// Validate checks structural invariants that go beyond per-field validator
// tags: dangling edges, cluster membership disjointness, and cluster
// forest-acyclicity. It does not call the resolver or advisor.
func (s ArchitectureSpec) Validate() error {
	if !ValidProviders[s.Provider] {
		return fmt.Errorf("%w: unknown provider %q", ErrValidation, s.Provider)
	}
	if s.Direction != "" && !validDirections[s.Direction] {
		return fmt.Errorf("%w: unknown direction %q", ErrValidation, s.Direction)
	}
	for _, f := range s.OutFormat {
		if !validOutFormats[f] {
			return fmt.Errorf("%w: unknown out_format %q", ErrValidation, f)
		}
	}

	ids := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		if ids[c.ID] {
			return fmt.Errorf("%w: duplicate component id %q", ErrValidation, c.ID)
		}
		ids[c.ID] = true
	}

	for _, conn := range s.Connections {
		if !ids[conn.FromID] {
			return fmt.Errorf("%w: connection references unknown component %q", ErrValidation, conn.FromID)
		}
		if !ids[conn.ToID] {
			return fmt.Errorf("%w: connection references unknown component %q", ErrValidation, conn.ToID)
		}
	}

	owner := make(map[string]string, len(ids))
	clusterIDs := make(map[string]bool, len(s.Clusters))
	for _, cl := range s.Clusters {
		clusterIDs[cl.ID] = true
	}
	for _, cl := range s.Clusters {
		for _, cid := range cl.ComponentIDs {
			if !ids[cid] {
				return fmt.Errorf("%w: cluster %q references unknown component %q", ErrValidation, cl.ID, cid)
			}
			if prev, ok := owner[cid]; ok {
				return fmt.Errorf("%w: component %q belongs to clusters %q and %q", ErrValidation, cid, prev, cl.ID)
			}
			owner[cid] = cl.ID
		}
		if cl.ParentID != "" && !clusterIDs[cl.ParentID] {
			return fmt.Errorf("%w: cluster %q has unknown parent %q", ErrValidation, cl.ID, cl.ParentID)
		}
	}

	return validateClusterForest(s.Clusters)
}

// validateClusterForest rejects cycles in the parent_id graph.
func validateClusterForest(clusters []Cluster) error {
	parent := make(map[string]string, len(clusters))
	for _, c := range clusters {
		parent[c.ID] = c.ParentID
	}
	for id := range parent {
		visited := map[string]bool{}
		cur := id
		for cur != "" {
			if visited[cur] {
				return fmt.Errorf("%w: cluster parent graph contains a cycle at %q", ErrValidation, cur)
			}
			visited[cur] = true
			cur = parent[cur]
		}
	}
	return nil
}
