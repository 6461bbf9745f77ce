/*
   This file defines the sparse graph payload carried by graph streams.
*/

package batch

import (
	"fmt"

	"github.com/janelia-flyem/voxpipe/vox"
)

// ElementProperties is a set of named values stored at a vertex or edge.
type ElementProperties map[string]interface{}

func (p ElementProperties) duplicate() ElementProperties {
	if p == nil {
		return nil
	}
	dup := make(ElementProperties, len(p))
	for k, v := range p {
		dup[k] = v
	}
	return dup
}

// VertexID is a 64 bit ID for vertices in the graph
type VertexID uint64

// VertexPairID names the two endpoints of an edge.  For undirected graphs the
// smaller ID should be first.
type VertexPairID struct {
	Vertex1 VertexID
	Vertex2 VertexID
}

// Vertex is a point in world units with optional properties.
type Vertex struct {
	ID         VertexID
	Location   vox.NdFloat64
	Properties ElementProperties
}

// Edge joins two vertices.
type Edge struct {
	Vertexpair VertexPairID
	Weight     float64
	Properties ElementProperties
}

// Graph is a sparse payload of vertices and edges.
type Graph struct {
	Spec     GraphSpec
	Vertices []Vertex
	Edges    []Edge
}

// NewGraph returns a graph after checking that vertex locations match the spec's
// dimensionality and that edges only reference known vertices.
func NewGraph(spec GraphSpec, vertices []Vertex, edges []Edge) (*Graph, error) {
	ids := make(map[VertexID]struct{}, len(vertices))
	dims := int(spec.Roi.NumDims())
	for _, v := range vertices {
		if dims != 0 && len(v.Location) != dims {
			return nil, fmt.Errorf("%w: vertex %d at %s in %d-d graph", vox.ErrDimensionMismatch, v.ID, v.Location, dims)
		}
		if _, dup := ids[v.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate vertex %d", vox.ErrInvalidSpec, v.ID)
		}
		ids[v.ID] = struct{}{}
	}
	for _, e := range edges {
		_, found1 := ids[e.Vertexpair.Vertex1]
		_, found2 := ids[e.Vertexpair.Vertex2]
		if !found1 || !found2 {
			return nil, fmt.Errorf("%w: edge %d-%d references an unknown vertex", vox.ErrInvalidSpec,
				e.Vertexpair.Vertex1, e.Vertexpair.Vertex2)
		}
	}
	return &Graph{Spec: spec, Vertices: vertices, Edges: edges}, nil
}

// Copy returns a deep copy of the graph.
func (g *Graph) Copy() *Graph {
	dup := &Graph{
		Spec:     g.Spec,
		Vertices: make([]Vertex, len(g.Vertices)),
		Edges:    make([]Edge, len(g.Edges)),
	}
	for i, v := range g.Vertices {
		dup.Vertices[i] = Vertex{ID: v.ID, Location: v.Location.Duplicate(), Properties: v.Properties.duplicate()}
	}
	for i, e := range g.Edges {
		dup.Edges[i] = Edge{Vertexpair: e.Vertexpair, Weight: e.Weight, Properties: e.Properties.duplicate()}
	}
	return dup
}

// Crop returns a new graph holding the vertices located within the region and the
// edges whose endpoints were both kept.  Nonspatial graphs are copied whole.
func (g *Graph) Crop(roi vox.Roi) (*Graph, error) {
	if g.Spec.Nonspatial || !roi.Defined() || roi.Equals(g.Spec.Roi) {
		return g.Copy(), nil
	}
	inside, err := g.Spec.Roi.Contains(roi)
	if err != nil {
		return nil, err
	}
	if !inside {
		return nil, fmt.Errorf("%w: cannot crop graph at %s to %s", vox.ErrRequestUnsatisfiable, g.Spec.Roi, roi)
	}
	cropped := &Graph{Spec: g.Spec}
	cropped.Spec.Roi = roi
	kept := make(map[VertexID]struct{})
	for _, v := range g.Vertices {
		in, err := roi.ContainsLocation(v.Location)
		if err != nil {
			return nil, err
		}
		if in {
			kept[v.ID] = struct{}{}
			cropped.Vertices = append(cropped.Vertices,
				Vertex{ID: v.ID, Location: v.Location.Duplicate(), Properties: v.Properties.duplicate()})
		}
	}
	for _, e := range g.Edges {
		_, in1 := kept[e.Vertexpair.Vertex1]
		_, in2 := kept[e.Vertexpair.Vertex2]
		if in1 && in2 {
			cropped.Edges = append(cropped.Edges,
				Edge{Vertexpair: e.Vertexpair, Weight: e.Weight, Properties: e.Properties.duplicate()})
		}
	}
	return cropped, nil
}

func (g *Graph) String() string {
	return fmt.Sprintf("Graph(%s, %d vertices, %d edges)", g.Spec, len(g.Vertices), len(g.Edges))
}
