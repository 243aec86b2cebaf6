// Package style turns a logical topology graph into a styled copy ready
// for Graphviz.
//
// [Apply] never mutates its input: it clones the graph and writes
// presentation attributes under the "dot." prefix, leaving the logical
// attributes in place. [Filter] then drops services from the styled copy.
package style

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/composeviz/pkg/compose"
	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/topology"
)

// Prefix marks presentation attributes.
const Prefix = "dot."

// DefaultBackground is the background color used when none is given.
const DefaultBackground = "#ffffff"

// Options configures [Apply].
type Options struct {
	// Horizontal lays the graph out left to right instead of top to bottom.
	Horizontal bool
	// Background is a #rrggbb color or "transparent".
	Background string
}

var graphDefaults = [][2]string{
	{"pad", "0.5"},
	{"ratio", "fill"},
	{"splines", "true"},
	{"overlap", "false"},
}

var nodeStyles = map[topology.Kind]graph.Attributes{
	topology.KindService: {"shape": "component"},
	topology.KindVolume:  {"shape": "pentagon"},
	topology.KindNetwork: {"shape": "pentagon"},
	topology.KindPort:    {"shape": "circle"},
	topology.KindConfig:  {"shape": "note"},
	topology.KindSecret:  {"shape": "hexagon"},
}

var edgeStyles = map[topology.Relation]graph.Attributes{
	topology.RelationExtends:       {"dir": "both", "arrowhead": "inv", "arrowtail": "dot"},
	topology.RelationLinks:         {"style": "solid"},
	topology.RelationExternalLinks: {"style": "solid", "color": "gray"},
	topology.RelationDependsOn:     {"style": "dotted"},
	topology.RelationVolumesFrom:   {"style": "dashed"},
	topology.RelationVolumes:       {"style": "dashed"},
	topology.RelationPorts:         {"style": "solid"},
	topology.RelationNetworks:      {},
	topology.RelationConfigs:       {},
	topology.RelationSecrets:       {},
}

// Apply returns a styled copy of g.
func Apply(g *graph.Graph, opts Options) *graph.Graph {
	styled := g.Clone()

	bg := opts.Background
	if bg == "" {
		bg = DefaultBackground
	}
	ga := styled.Attrs()
	ga[Prefix+"bgcolor"] = bg
	for _, kv := range graphDefaults {
		ga[Prefix+kv[0]] = kv[1]
	}
	if opts.Horizontal {
		ga[Prefix+"rankdir"] = "LR"
	}

	for _, n := range styled.Nodes() {
		styleNode(n)
	}
	for _, e := range styled.Edges() {
		styleEdge(e)
	}
	return styled
}

func styleNode(n *graph.Node) {
	a := n.Attrs
	kind := topology.KindOf(n)
	setAll(a, nodeStyles[kind])

	if label := a[topology.AttrLabel]; label != "" && label != n.ID {
		a[Prefix+"label"] = label
	}

	switch kind {
	case topology.KindVolume:
		if a[topology.AttrVolumeType] == compose.VolumeTypeBind {
			a[Prefix+"shape"] = "folder"
		} else {
			a[Prefix+"color"] = "blue"
		}
	case topology.KindPort:
		if a[topology.AttrProtocol] == "udp" {
			a[Prefix+"style"] = "dashed"
		}
	}

	if a.Bool(topology.AttrExternal) {
		a[Prefix+"color"] = "gray"
	}
}

func styleEdge(e *graph.Edge) {
	a := e.Attrs
	setAll(a, edgeStyles[topology.RelationOf(e)])

	if label := a[topology.AttrLabel]; label != "" {
		a[Prefix+"label"] = label
	}
	if a.Bool(topology.AttrBidirectional) {
		a[Prefix+"dir"] = "both"
	}
	if a.Bool(topology.AttrExternal) {
		a[Prefix+"color"] = "gray"
	}
}

func setAll(a, style graph.Attributes) {
	for k, v := range style {
		a[Prefix+k] = v
	}
}

// Presentation returns the presentation attributes of a, without the
// prefix, as sorted key/value pairs.
func Presentation(a graph.Attributes) [][2]string {
	var out [][2]string
	for _, k := range slices.Sorted(maps.Keys(a)) {
		if name, ok := strings.CutPrefix(k, Prefix); ok {
			out = append(out, [2]string{name, a[k]})
		}
	}
	return out
}

// Filter removes services from g in place. When include is non-empty only
// the listed services are kept; services listed in exclude are then
// removed from what remains. Edges incident to a removed service go with
// it; other entities stay. Filter returns the number of removed services.
func Filter(g *graph.Graph, include, exclude []string) int {
	if len(include) == 0 && len(exclude) == 0 {
		return 0
	}

	removed := 0
	for _, n := range g.Nodes() {
		if topology.KindOf(n) != topology.KindService {
			continue
		}
		name := topology.NameOf(n)
		keep := len(include) == 0 || slices.Contains(include, name)
		if keep && slices.Contains(exclude, name) {
			keep = false
		}
		if !keep && g.RemoveNode(n.ID) {
			removed++
		}
	}
	return removed
}
