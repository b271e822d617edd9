// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine emits renderer source from a resolved architecture spec,
// executes it in a sandboxed subprocess, and manages the resulting
// artifact files: filename sanitization, optional cold-storage mirroring,
// unified-diff computation across modify passes, and a best-effort static
// syntax pre-check.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/resolver"
)

// ResolvedComponent pairs a spec component with its resolver symbol.
type ResolvedComponent struct {
	Component datatypes.Component
	Symbol    resolver.Symbol
}

// EmitSource renders Python source for the Diagrams library from a spec and
// its per-component resolutions, following the spec's five emission steps:
// imports grouped per category, a root Diagram block carrying direction and
// graph attrs, cluster blocks recursed from top-level parents, components
// emitted with stable local variable names, then the connection
// expressions (operator chosen by ConnectionDirection).
func EmitSource(spec datatypes.ArchitectureSpec, resolved []ResolvedComponent) (string, error) {
	byID := make(map[string]ResolvedComponent, len(resolved))
	for _, rc := range resolved {
		byID[rc.Component.ID] = rc
	}

	var b strings.Builder
	writeImports(&b, resolved)
	b.WriteString("\n")

	varNames := assignVarNames(spec.Components)

	fmt.Fprintf(&b, "with Diagram(%q, direction=%q, show=False, outformat=%s, graph_attr=%s, node_attr=%s, edge_attr=%s):\n",
		spec.Title, string(spec.Direction),
		outFormatList(spec.OutFormat),
		pyDict(spec.GraphvizAttrs.GraphAttr),
		pyDict(spec.GraphvizAttrs.NodeAttr),
		pyDict(spec.GraphvizAttrs.EdgeAttr),
	)

	clustered := make(map[string]bool)
	for _, cl := range spec.Clusters {
		for _, cid := range cl.ComponentIDs {
			clustered[cid] = true
		}
	}

	children := make(map[string][]datatypes.Cluster)
	var roots []datatypes.Cluster
	for _, cl := range spec.Clusters {
		if cl.ParentID == "" {
			roots = append(roots, cl)
		} else {
			children[cl.ParentID] = append(children[cl.ParentID], cl)
		}
	}

	for _, root := range roots {
		writeCluster(&b, root, children, byID, varNames, 1)
	}

	for _, c := range spec.Components {
		if clustered[c.ID] {
			continue
		}
		rc, ok := byID[c.ID]
		if !ok {
			return "", fmt.Errorf("%w: component %q has no resolved symbol", datatypes.ErrInternal, c.ID)
		}
		writeComponent(&b, rc, varNames[c.ID], 1)
	}

	writeConnections(&b, spec.Connections, varNames, 1)

	return b.String(), nil
}

// writeImports groups resolved components by module and emits one `from
// <module> import <Class1>, <Class2>` line per module, sorted for
// deterministic output.
func writeImports(b *strings.Builder, resolved []ResolvedComponent) {
	byModule := make(map[string]map[string]bool)
	for _, rc := range resolved {
		if byModule[rc.Symbol.Module] == nil {
			byModule[rc.Symbol.Module] = map[string]bool{}
		}
		byModule[rc.Symbol.Module][rc.Symbol.Class] = true
	}
	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	fmt.Fprintln(b, "from diagrams import Diagram, Cluster, Edge")
	for _, m := range modules {
		classes := make([]string, 0, len(byModule[m]))
		for c := range byModule[m] {
			classes = append(classes, c)
		}
		sort.Strings(classes)
		fmt.Fprintf(b, "from %s import %s\n", m, strings.Join(classes, ", "))
	}
}

// assignVarNames derives a stable, unique Python identifier per component
// id: lowercased, non-alphanumeric runs collapsed to underscore, prefixed
// with "c_" if it would not otherwise start with a letter, disambiguated
// with a numeric suffix on collision.
func assignVarNames(components []datatypes.Component) map[string]string {
	out := make(map[string]string, len(components))
	used := make(map[string]int)
	for _, c := range components {
		base := sanitizeIdent(c.ID)
		name := base
		if n, seen := used[base]; seen {
			n++
			used[base] = n
			name = fmt.Sprintf("%s_%d", base, n)
		} else {
			used[base] = 0
		}
		out[c.ID] = name
	}
	return out
}

func sanitizeIdent(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "c_" + name
	}
	return name
}

func writeCluster(b *strings.Builder, cl datatypes.Cluster, children map[string][]datatypes.Cluster, byID map[string]ResolvedComponent, varNames map[string]string, indent int) {
	pad := strings.Repeat("    ", indent)
	fmt.Fprintf(b, "%swith Cluster(%q, graph_attr=%s):\n", pad, cl.Name, pyDict(cl.GraphvizAttrs.GraphAttr))

	for _, cid := range cl.ComponentIDs {
		if rc, ok := byID[cid]; ok {
			writeComponent(b, rc, varNames[cid], indent+1)
		}
	}
	for _, child := range children[cl.ID] {
		writeCluster(b, child, children, byID, varNames, indent+1)
	}
}

func writeComponent(b *strings.Builder, rc ResolvedComponent, varName string, indent int) {
	pad := strings.Repeat("    ", indent)
	fmt.Fprintf(b, "%s%s = %s(%q%s)\n", pad, varName, rc.Symbol.Class, rc.Component.Name, attrKwargs(rc.Component.GraphvizAttrs))
}

func attrKwargs(attrs datatypes.AttrMap) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, ", %s=%q", k, attrs[k])
	}
	return sb.String()
}

// connGroupKey identifies a bucket of plain (no label, no per-edge attrs)
// connections that share a destination and operator, and so can collapse
// into a single "[srcA, srcB, srcC] >> dst" expression.
type connGroupKey struct {
	toID string
	op   string
}

// writeConnections emits one expression per connection, grouping plain
// edges that share a destination and operator into a single "[srcA, srcB]
// op dst" form rather than N separate lines. Edges carrying a label or
// per-edge attrs are never grouped — they always go through the Edge(...)
// wrapper form, individually, since each can carry its own distinct
// kwargs. Each group is emitted at the position of its first occurrence
// in connections, keeping output order deterministic.
func writeConnections(b *strings.Builder, connections []datatypes.Connection, varNames map[string]string, indent int) {
	pad := strings.Repeat("    ", indent)

	groupFroms := make(map[connGroupKey][]string)
	for _, conn := range connections {
		if !isGroupable(conn) {
			continue
		}
		key := connGroupKey{conn.ToID, operatorFor(conn.Direction)}
		groupFroms[key] = append(groupFroms[key], varNames[conn.FromID])
	}

	emitted := make(map[connGroupKey]bool)

	for _, conn := range connections {
		toVar := varNames[conn.ToID]
		op := operatorFor(conn.Direction)

		if isGroupable(conn) {
			key := connGroupKey{conn.ToID, op}
			if emitted[key] {
				continue
			}
			emitted[key] = true

			froms := groupFroms[key]
			if len(froms) > 1 {
				fmt.Fprintf(b, "%s[%s] %s %s\n", pad, strings.Join(froms, ", "), op, toVar)
			} else {
				fmt.Fprintf(b, "%s%s %s %s\n", pad, froms[0], op, toVar)
			}
			continue
		}

		fromVar := varNames[conn.FromID]
		var kwargs strings.Builder
		if conn.Label != "" {
			fmt.Fprintf(&kwargs, "label=%q", conn.Label)
		}
		if edgeAttrs := attrKwargs(conn.GraphvizAttrs); edgeAttrs != "" {
			if kwargs.Len() > 0 {
				kwargs.WriteString(", ")
			}
			kwargs.WriteString(strings.TrimPrefix(edgeAttrs, ", "))
		}
		fmt.Fprintf(b, "%s%s %s Edge(%s) %s %s\n", pad, fromVar, op, kwargs.String(), op, toVar)
	}
}

// isGroupable reports whether conn carries neither a label nor per-edge
// graphviz attrs, making it eligible for the "[srcA, srcB] op dst"
// grouped form instead of the individual Edge(...) wrapper form.
func isGroupable(conn datatypes.Connection) bool {
	return conn.Label == "" && len(conn.GraphvizAttrs) == 0
}

func operatorFor(dir datatypes.ConnectionDirection) string {
	switch dir {
	case datatypes.ConnBackward:
		return "<<"
	case datatypes.ConnBidirectional:
		return "-"
	default:
		return ">>"
	}
}

func outFormatList(formats []datatypes.OutFormat) string {
	quoted := make([]string, len(formats))
	for i, f := range formats {
		quoted[i] = fmt.Sprintf("%q", string(f))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pyDict(attrs datatypes.AttrMap) string {
	if len(attrs) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %q", k, attrs[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
