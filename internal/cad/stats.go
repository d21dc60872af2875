// Package cad tallies the entities of a DXF drawing on one layer by type
// and by the attributes drafters usually audit: block names and rotations,
// text styles and contents, dimension types, hatch patterns.
package cad

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"recdiff/internal/source"
)

// Tally counts occurrences of string values.
type Tally map[string]int

// Count is one tally entry.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Sorted returns the entries by descending count, then value.
func (t Tally) Sorted() []Count {
	out := make([]Count, 0, len(t))
	for v, n := range t {
		out = append(out, Count{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func (t Tally) add(v string) { t[v]++ }

// Group is the tally of one entity type.
type Group struct {
	Type    string           `json:"type"`
	Total   int              `json:"total"`
	Details map[string]Tally `json:"details,omitempty"`
}

func (g *Group) tally(dimension, value string) {
	if g.Details == nil {
		g.Details = map[string]Tally{}
	}
	if g.Details[dimension] == nil {
		g.Details[dimension] = Tally{}
	}
	g.Details[dimension].add(value)
}

// Dimensions returns the detail names of the group, sorted.
func (g *Group) Dimensions() []string {
	out := make([]string, 0, len(g.Details))
	for d := range g.Details {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Stats is the analysis of one layer.
type Stats struct {
	Layer    string  `json:"layer"`
	Entities int     `json:"entities"`
	Groups   []Group `json:"groups"`
}

// Group returns the tally of an entity type, or nil.
func (s *Stats) Group(typ string) *Group {
	for i := range s.Groups {
		if s.Groups[i].Type == typ {
			return &s.Groups[i]
		}
	}
	return nil
}

// Analyzed entity types, in report order.
const (
	TypePolyline    = "LWPOLYLINE"
	TypeInsert      = "INSERT"
	TypeMultiLeader = "MULTILEADER"
	TypeDimension   = "DIMENSION"
	TypeText        = "TEXT"
	TypeMText       = "MTEXT"
	TypeHatch       = "HATCH"
)

var analyzedTypes = []string{
	TypePolyline, TypeInsert, TypeMultiLeader, TypeDimension, TypeText, TypeMText, TypeHatch,
}

// OnLayer reports whether an entity is on layer. Entities of an xref-bound
// copy of the layer ("name @ 1") count as well. An empty layer matches
// everything.
func OnLayer(e source.Entity, layer string) bool {
	if layer == "" {
		return true
	}
	l := e.Layer()
	return l == layer || l == layer+" @ 1"
}

// Analyze tallies the entities on layer. Every analyzed type is reported,
// with a zero total when absent; other entity types count toward Entities
// only.
func Analyze(entities []source.Entity, layer string) *Stats {
	groups := make(map[string]*Group, len(analyzedTypes))
	for _, t := range analyzedTypes {
		groups[t] = &Group{Type: t}
	}
	s := &Stats{Layer: layer}

	for _, e := range entities {
		if !OnLayer(e, layer) {
			continue
		}
		s.Entities++
		g, ok := groups[e.Type]
		if !ok {
			continue
		}
		g.Total++

		switch e.Type {
		case TypePolyline:
			if hasCurve(e.Values(42)) {
				g.tally("shape", "curved")
			} else {
				g.tally("shape", "straight")
			}
		case TypeInsert:
			g.tally("name", or(e.Prop(2), "Unknown"))
			g.tally("rotation", strconv.FormatFloat(roundHalfUp(number(e.Prop(50))), 'f', -1, 64))
		case TypeMultiLeader:
			g.tally("content", or(e.Prop(304), e.Prop(1), "Unknown"))
			g.tally("style", or(e.Prop(340), "Standard"))
		case TypeDimension:
			g.tally("type", or(e.Prop(70), "0"))
			g.tally("style", or(e.Prop(3), "Standard"))
			g.tally("content", or(e.Prop(1), "Unknown"))
		case TypeText:
			g.tally("content", or(e.Prop(1), "Unknown"))
			g.tally("style", or(e.Prop(7), "Standard"))
		case TypeMText:
			g.tally("content", or(e.Prop(1), e.Prop(3), "Unknown"))
			g.tally("style", or(e.Prop(7), "Standard"))
			g.tally("rotation", strconv.FormatFloat(number(e.Prop(50)), 'f', 2, 64))
		case TypeHatch:
			g.tally("pattern", or(e.Prop(2), "SOLID"))
			if flags, err := strconv.Atoi(e.Prop(70)); err == nil && flags&1 == 1 {
				g.tally("fill", "solid")
			} else {
				g.tally("fill", "pattern")
			}
			if v := e.Prop(71); v != "" && v != "0" {
				g.tally("associativity", "associative")
			} else {
				g.tally("associativity", "non-associative")
			}
			g.tally("scale", or(e.Prop(41), "1"))
			g.tally("angle", strconv.FormatFloat(number(e.Prop(52)), 'f', 2, 64))
		}
	}

	for _, t := range analyzedTypes {
		s.Groups = append(s.Groups, *groups[t])
	}
	return s
}

// Polyline curved segments have a non-zero bulge (group code 42).
func hasCurve(bulges []string) bool {
	for _, b := range bulges {
		if number(b) != 0 {
			return true
		}
	}
	return false
}

func number(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

func roundHalfUp(f float64) float64 {
	r := math.Floor(f + 0.5)
	if r == 0 {
		return 0
	}
	return r
}

func or(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
