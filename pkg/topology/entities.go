package topology

import (
	"maps"
	"strings"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
)

// AddService returns the service node for name, creating it if needed.
// extra attributes are applied on creation only.
func AddService(g *graph.Graph, name string, extra graph.Attributes) *graph.Node {
	return register(g, KindService, name, extra)
}

// DeclareService returns the node of a service defined in a configuration.
// A node previously registered as external becomes a regular service.
func DeclareService(g *graph.Graph, name string) *graph.Node {
	n := register(g, KindService, name, nil)
	delete(n.Attrs, AttrExternal)
	return n
}

// AddExternalService registers a service that is not declared in the
// configuration, such as the target of an external link.
func AddExternalService(g *graph.Graph, name string) *graph.Node {
	return register(g, KindService, name, graph.Attributes{AttrExternal: "true"})
}

// AddVolume returns the volume node for name, creating it if needed.
func AddVolume(g *graph.Graph, name string, extra graph.Attributes) *graph.Node {
	return register(g, KindVolume, name, extra)
}

// AddNetwork returns the network node for name, creating it if needed.
func AddNetwork(g *graph.Graph, name string, extra graph.Attributes) *graph.Node {
	return register(g, KindNetwork, name, extra)
}

// AddConfig returns the config node for name, creating it if needed.
func AddConfig(g *graph.Graph, name string, extra graph.Attributes) *graph.Node {
	return register(g, KindConfig, name, extra)
}

// AddSecret returns the secret node for name, creating it if needed.
func AddSecret(g *graph.Graph, name string, extra graph.Attributes) *graph.Node {
	return register(g, KindSecret, name, extra)
}

// AddPort returns the port node for a publication, creating it if needed.
// Its label is the host address and published port.
func AddPort(g *graph.Graph, p compose.PortMapping) *graph.Node {
	return register(g, KindPort, PortName(p), graph.Attributes{
		AttrLabel:    portLabel(p),
		AttrProtocol: p.Protocol,
	})
}

// PortName returns the entity name of a port publication:
// "[host_ip:]published[/protocol]", the protocol only when it is not tcp.
func PortName(p compose.PortMapping) string {
	name := portLabel(p)
	if p.Protocol != "" && p.Protocol != compose.DefaultProtocol {
		name += "/" + p.Protocol
	}
	return name
}

func portLabel(p compose.PortMapping) string {
	if p.HostIP == "" {
		return p.Published
	}
	host := p.HostIP
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":" + p.Published
}

// Find returns the node of an entity or a NOT_FOUND error.
func Find(g *graph.Graph, kind Kind, name string) (*graph.Node, error) {
	if n, ok := g.Node(ID(kind, name)); ok {
		return n, nil
	}
	return nil, errs.New(errs.ErrCodeNotFound, "%s %q not found", kind, name)
}

// FindService returns the node of a service or a NOT_FOUND error.
func FindService(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindService, name)
}

// FindVolume returns the node of a volume or a NOT_FOUND error.
func FindVolume(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindVolume, name)
}

// FindNetwork returns the node of a network or a NOT_FOUND error.
func FindNetwork(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindNetwork, name)
}

// FindPort returns the node of a port, by [PortName], or a NOT_FOUND error.
func FindPort(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindPort, name)
}

// FindConfig returns the node of a config or a NOT_FOUND error.
func FindConfig(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindConfig, name)
}

// FindSecret returns the node of a secret or a NOT_FOUND error.
func FindSecret(g *graph.Graph, name string) (*graph.Node, error) {
	return Find(g, KindSecret, name)
}

func register(g *graph.Graph, kind Kind, name string, extra graph.Attributes) *graph.Node {
	id := ID(kind, name)
	if n, ok := g.Node(id); ok {
		return n
	}

	attrs := graph.Attributes{
		AttrKind:  string(kind),
		AttrLabel: name,
	}
	maps.Copy(attrs, extra)
	attrs[AttrKind] = string(kind)

	// The ID is never empty and was just checked for absence.
	n, _ := g.AddNode(graph.Node{ID: id, Attrs: attrs})
	return n
}
