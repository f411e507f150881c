/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package graph renders the resource dependency graph of a plan in DOT or
// Mermaid format.
package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/emicklei/dot"

	"github.com/sql-instance-planner/internal/normalizer"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for markdown rendering.
	FormatMermaid Format = "mermaid"
)

// ParseFormat validates a format name. The empty string means dot.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "", FormatDOT:
		return FormatDOT, nil
	case FormatMermaid:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q, expected dot or mermaid", name)
	}
}

// Generator creates dependency graphs from plans.
type Generator struct {
	// Format specifies the output format. Defaults to dot.
	Format Format

	// ClusterByKind groups databases, users, replicas and secrets in subgraphs.
	ClusterByKind bool

	// OmitSecrets leaves secret request nodes out of the graph.
	OmitSecrets bool
}

// Generate builds the graph of plan and writes it to w.
// Edges point from a resource to what it depends on.
func (g *Generator) Generate(plan *normalizer.Plan, w io.Writer) error {
	graph := g.buildGraph(plan)

	var output string
	if g.Format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := io.WriteString(w, output)
	return err
}

// GenerateString returns the graph as a string.
func (g *Generator) GenerateString(plan *normalizer.Plan) (string, error) {
	var sb strings.Builder
	if err := g.Generate(plan, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

const (
	kindInstance = "instance"
	kindDatabase = "database"
	kindUser     = "user"
	kindReplica  = "replica"
	kindSecret   = "secret"
)

var idReplacer = strings.NewReplacer("-", "_", ".", "_", "@", "_", " ", "_")

func nodeID(kind, name string) string {
	return kind + "_" + idReplacer.Replace(name)
}

func (g *Generator) buildGraph(plan *normalizer.Plan) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "BT")

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})
	graph.EdgeInitializer(func(e dot.Edge) {
		e.Attr("fontname", "Arial")
		e.Attr("fontsize", "10")
	})

	clusters := map[string]*dot.Graph{}
	parent := func(kind string) *dot.Graph {
		if !g.ClusterByKind || kind == kindInstance {
			return graph
		}
		if c, ok := clusters[kind]; ok {
			return c
		}
		c := graph.Subgraph(kind+"s", dot.ClusterOption{})
		c.Attr("style", "rounded")
		clusters[kind] = c
		return c
	}

	node := func(kind, name, detail string) dot.Node {
		n := parent(kind).Node(nodeID(kind, name))
		label := name
		if detail != "" {
			label += "\\n[" + detail + "]"
		}
		n.Label(label)
		return n
	}

	inst := plan.Instance
	primary := node(kindInstance, inst.Name, string(inst.Family)+" "+inst.Tier)
	primary.Attr("shape", "box3d")

	secrets := map[string]dot.Node{}
	if !g.OmitSecrets {
		for _, req := range plan.SecretRequests {
			n := node(kindSecret, req.Name, fmt.Sprintf("%d chars", req.Length))
			n.Attr("shape", "note")
			n.Attr("style", "dashed")
			secrets[req.Name] = n
		}
		if n, ok := secrets[inst.RootPasswordRef]; ok && inst.RootPasswordRef != "" {
			graph.Edge(primary, n).Attr("style", "dashed")
		}
	}

	for _, db := range plan.DatabaseList() {
		graph.Edge(node(kindDatabase, db.Name, db.Charset), primary)
	}

	for _, u := range plan.UserList() {
		n := node(kindUser, u.Name, string(u.Type))
		e := graph.Edge(n, primary)
		if u.Type.IsIAM() {
			e.Attr("color", "blue")
		}
		if s, ok := secrets[u.SecretRef]; ok && u.SecretRef != "" {
			graph.Edge(n, s).Attr("style", "dashed")
		}
	}

	for _, r := range plan.ReplicaList() {
		n := node(kindReplica, r.Name, r.Tier)
		n.Attr("shape", "box3d")
		graph.Edge(n, primary).Label("replicates")
	}

	return graph
}
