package topology

import (
	"strings"

	"github.com/matzehuels/composeviz/pkg/compose"
	"github.com/matzehuels/composeviz/pkg/graph"
)

// AddExtendsRelation connects a service to the service it extends.
// Both services must exist.
func AddExtendsRelation(g *graph.Graph, service, extended string) (*graph.Edge, error) {
	return relateServices(g, service, extended, RelationExtends, edgeAttrs{})
}

// AddLinkRelation connects a service to a linked service, labelled with
// the link alias. Both services must exist.
func AddLinkRelation(g *graph.Graph, service string, link compose.Link) (*graph.Edge, error) {
	return relateServices(g, service, link.Target, RelationLinks, edgeAttrs{label: link.Alias})
}

// AddExternalLinkRelation connects a service to a container outside the
// configuration. The target is registered as an external service when it
// is not declared.
func AddExternalLinkRelation(g *graph.Graph, service string, link compose.Link) (*graph.Edge, error) {
	return relateTo(g, service, RelationExternalLinks, edgeAttrs{label: link.Alias, external: true},
		func() *graph.Node { return AddExternalService(g, link.Target) })
}

// AddDependsRelation connects a service to a service it depends on. A
// start condition becomes the label and marks the edge bidirectional.
func AddDependsRelation(g *graph.Graph, service string, dep compose.Dependency) (*graph.Edge, error) {
	return relateServices(g, service, dep.Service, RelationDependsOn, edgeAttrs{
		label:         dep.Condition,
		bidirectional: dep.Condition != "",
	})
}

// AddVolumesFromRelation connects a service to the service whose volumes
// it mounts. Container references are registered as external services.
func AddVolumesFromRelation(g *graph.Graph, service string, ref compose.VolumesFrom) (*graph.Edge, error) {
	if ref.Container {
		return relateTo(g, service, RelationVolumesFrom, edgeAttrs{},
			func() *graph.Node { return AddExternalService(g, ref.Name) })
	}
	return relateServices(g, service, ref.Name, RelationVolumesFrom, edgeAttrs{})
}

// AddVolumeRelation connects a service to a mounted volume, creating the
// volume node if needed. The edge is labelled with the mount target and is
// bidirectional for writable mounts.
func AddVolumeRelation(g *graph.Graph, service string, mount compose.VolumeMapping) (*graph.Edge, error) {
	attrs := edgeAttrs{label: mount.Target, bidirectional: !mount.ReadOnly}
	return relateTo(g, service, RelationVolumes, attrs, func() *graph.Node {
		return AddVolume(g, mount.Source, graph.Attributes{AttrVolumeType: mount.Type})
	})
}

// AddPortRelation connects a service to a published port, creating the
// port node if needed. The edge is labelled with the container port.
func AddPortRelation(g *graph.Graph, service string, p compose.PortMapping) (*graph.Edge, error) {
	return relateTo(g, service, RelationPorts, edgeAttrs{label: p.Target},
		func() *graph.Node { return AddPort(g, p) })
}

// AddNetworkRelation connects a service to a network, creating the
// network node if needed. The edge is labelled with the service's aliases
// on that network.
func AddNetworkRelation(g *graph.Graph, service string, att compose.NetworkAttachment) (*graph.Edge, error) {
	return relateTo(g, service, RelationNetworks, edgeAttrs{label: strings.Join(att.Aliases, ", ")},
		func() *graph.Node { return AddNetwork(g, att.Network, nil) })
}

// AddConfigRelation connects a service to a config, creating the config
// node if needed. The edge is labelled with the mount target.
func AddConfigRelation(g *graph.Graph, service string, ref compose.FileReference) (*graph.Edge, error) {
	return relateTo(g, service, RelationConfigs, edgeAttrs{label: ref.Target},
		func() *graph.Node { return AddConfig(g, ref.Source, nil) })
}

// AddSecretRelation connects a service to a secret, creating the secret
// node if needed. The edge is labelled with the mount target.
func AddSecretRelation(g *graph.Graph, service string, ref compose.FileReference) (*graph.Edge, error) {
	return relateTo(g, service, RelationSecrets, edgeAttrs{label: ref.Target},
		func() *graph.Node { return AddSecret(g, ref.Source, nil) })
}

// edgeAttrs are the attributes a relation declaration sets. Every field is
// written on each declaration, so a repeated declaration fully overwrites
// the previous one.
type edgeAttrs struct {
	label         string
	bidirectional bool
	external      bool
}

// relateServices resolves both services, failing if either is missing.
func relateServices(g *graph.Graph, service, other string, rel Relation, attrs edgeAttrs) (*graph.Edge, error) {
	source, err := FindService(g, service)
	if err != nil {
		return nil, err
	}
	target, err := FindService(g, other)
	if err != nil {
		return nil, err
	}
	return relate(g, source, target, rel, attrs), nil
}

// relateTo resolves the source service and then creates or fetches the
// target.
func relateTo(g *graph.Graph, service string, rel Relation, attrs edgeAttrs, target func() *graph.Node) (*graph.Edge, error) {
	source, err := FindService(g, service)
	if err != nil {
		return nil, err
	}
	return relate(g, source, target(), rel, attrs), nil
}

func relate(g *graph.Graph, source, target *graph.Node, rel Relation, attrs edgeAttrs) *graph.Edge {
	edge := findEdge(g, source.ID, target.ID, rel)
	if edge == nil {
		// Both endpoints were resolved above.
		edge, _ = g.AddEdge(graph.Edge{From: source.ID, To: target.ID})
	}

	edge.Attrs[AttrRelation] = string(rel)
	if attrs.label != "" {
		edge.Attrs[AttrLabel] = attrs.label
	} else {
		delete(edge.Attrs, AttrLabel)
	}
	edge.Attrs.SetBool(AttrBidirectional, attrs.bidirectional)
	edge.Attrs.SetBool(AttrExternal, attrs.external)
	return edge
}

func findEdge(g *graph.Graph, from, to string, rel Relation) *graph.Edge {
	for _, e := range g.EdgesBetween(from, to) {
		if RelationOf(e) == rel {
			return e
		}
	}
	return nil
}
