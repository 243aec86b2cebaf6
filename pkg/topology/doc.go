// Package topology turns a compose document into a graph of typed entities
// and typed relations.
//
// # Entities
//
// Every node has a composite ID "<kind>:<name>" where kind is one of the
// [Kind] constants: service, volume, network, port, config or secret. The
// Add* registry functions are lookup-or-create: the first call creates the
// node with its default attributes, later calls return the same node
// unchanged. Find* functions fail with NOT_FOUND instead of creating.
//
// Ports are identified by their host address, published port and protocol,
// so "53/udp" and "53" are two distinct entities (port:53/udp and port:53).
//
// # Relations
//
// Edges are tagged with a [Relation] and there is at most one edge of a
// given relation between an ordered pair of nodes. Declaring the same
// relation twice reuses the edge and overwrites its attributes.
//
// Relations between services (extends, links, depends_on, volumes_from)
// require both services to exist. Relations to volumes, ports, networks,
// configs and secrets create the target on demand.
//
// # Building
//
// A [Builder] runs one pass over a document: it registers declared volumes,
// networks, configs and secrets, then all services, then walks every
// service's relations in a fixed order. Services that extend a service from
// another file cause that file to be loaded and processed into the same
// graph first.
//
//	b := topology.NewBuilder(topology.WithoutPorts, logger)
//	g, err := b.Build(doc, "docker-compose.yml")
//
// Any error aborts the build and no graph is returned.
package topology
