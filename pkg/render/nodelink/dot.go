package nodelink

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/flowlens/pkg/project"
)

// Options configures DOT generation.
type Options struct {
	// Direction is the Graphviz rankdir for flow and ego diagrams. Empty
	// means left to right.
	Direction string
	// ShowValues labels edges with their value.
	ShowValues bool
}

// Directions accepted by [Options.Direction].
var Directions = map[string]bool{"LR": true, "RL": true, "TB": true, "BT": true}

func (o Options) rankdir() string {
	if Directions[o.Direction] {
		return o.Direction
	}
	return "LR"
}

// Pen widths used when a payload carries no widths of its own.
const (
	minPen = 1.0
	maxPen = 8.0
)

// mapScale converts degrees to Graphviz inches for pinned map positions.
const mapScale = 0.1

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

func quote(s string) string { return `"` + dotEscaper.Replace(s) + `"` }

func header(buf *bytes.Buffer, rankdir string) {
	buf.WriteString("digraph G {\n")
	if rankdir != "" {
		fmt.Fprintf(buf, "  rankdir=%s;\n", rankdir)
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12];\n")
	buf.WriteString("  edge [color=\"#00000066\", arrowsize=0.6];\n")
}

// FlowDOT converts a flow or force payload to DOT. Force payloads keep their
// node colors and edge widths; flow payloads get pen widths scaled from the
// edge values.
func FlowDOT(p project.FlowPayload, opts Options) string {
	var buf bytes.Buffer
	header(&buf, opts.rankdir())
	buf.WriteString("  ranksep=1.2;\n  nodesep=0.25;\n\n")

	for _, n := range p.Nodes {
		attrs := []string{"label=" + quote(n.Name)}
		if n.Color != "" {
			attrs = append(attrs, "fillcolor="+quote(n.Color), "fontcolor=white")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.Name), strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")

	lo, hi := valueRange(len(p.Edges), func(i int) float64 { return p.Edges[i].Value })
	for _, e := range p.Edges {
		pen := e.Width
		if pen == 0 {
			pen = scale(e.Value, lo, hi, minPen, maxPen)
		}
		attrs := []string{fmt.Sprintf("penwidth=%.2f", pen)}
		if e.Color != "" {
			attrs = append(attrs, "color="+quote(e.Color+"99"))
		}
		if opts.ShowValues {
			attrs = append(attrs, "label="+quote(formatValue(e.Value)))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// EgoDOT converts an ego payload to DOT with the focus node highlighted.
func EgoDOT(p project.EgoPayload, opts Options) string {
	var buf bytes.Buffer
	header(&buf, opts.rankdir())
	fmt.Fprintf(&buf, "  label=%s;\n  labelloc=t;\n\n", quote(p.Focus+" · "+p.Stats.Label()))

	for _, n := range p.Nodes {
		attrs := []string{
			"label=" + quote(n.Name),
			fmt.Sprintf("fontsize=%.0f", 10+n.Size/10),
		}
		if n.Name == p.Focus {
			attrs = append(attrs, "fillcolor="+quote(project.Palette[0]), "fontcolor=white")
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.Name), strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")
	for _, e := range p.Edges {
		attrs := []string{fmt.Sprintf("penwidth=%.2f", e.Width)}
		if opts.ShowValues {
			attrs = append(attrs, "label="+quote(formatValue(e.Value)))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

// MapDOT converts a map payload to DOT for the neato engine. Nodes are
// pinned at their longitude and latitude; only drawable edges are emitted.
func MapDOT(p project.MapPayload, opts Options) string {
	var buf bytes.Buffer
	header(&buf, "")
	buf.WriteString("  layout=neato;\n  overlap=true;\n  splines=true;\n\n")

	lo, hi := valueRange(len(p.Nodes), func(i int) float64 { return p.Nodes[i].Size })
	for _, n := range p.Nodes {
		d := scale(n.Size, lo, hi, 0.15, 0.6)
		attrs := []string{
			"label=" + quote(n.Name),
			fmt.Sprintf("pos=\"%.4f,%.4f!\"", n.Lng*mapScale, n.Lat*mapScale),
			"shape=" + shapeFor(n.Shape),
			fmt.Sprintf("width=%.2f", d),
			fmt.Sprintf("height=%.2f", d),
			"fixedsize=true",
			"fontsize=8",
			"style=filled",
			"fillcolor=" + quote(n.Color),
		}
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.Name), strings.Join(attrs, ", "))
	}
	buf.WriteString("\n")

	elo, ehi := valueRange(len(p.Edges), func(i int) float64 { return p.Edges[i].Metric })
	for _, e := range p.Edges {
		if !e.Drawable {
			continue
		}
		attrs := []string{
			fmt.Sprintf("penwidth=%.2f", scale(e.Metric, elo, ehi, minPen, maxPen/2)),
			"color=" + quote(e.Color+"99"),
		}
		if opts.ShowValues {
			attrs = append(attrs, "label="+quote(formatValue(e.Metric)))
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", quote(e.Source), quote(e.Target), strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func shapeFor(shape string) string {
	switch shape {
	case project.ShapeOrigin:
		return "circle"
	case project.ShapeDual:
		return "doublecircle"
	default:
		return "square"
	}
}

func valueRange(n int, at func(int) float64) (lo, hi float64) {
	if n == 0 {
		return 0, 0
	}
	lo, hi = at(0), at(0)
	for i := 1; i < n; i++ {
		lo = math.Min(lo, at(i))
		hi = math.Max(hi, at(i))
	}
	return lo, hi
}

func scale(v, lo, hi, outLo, outHi float64) float64 {
	if hi == lo {
		return outLo
	}
	return outLo + (v-lo)/(hi-lo)*(outHi-outLo)
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
