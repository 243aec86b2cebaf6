package topology

import (
	"strings"

	"github.com/matzehuels/composeviz/pkg/graph"
)

// Kind identifies the type of an entity node.
type Kind string

// Entity kinds.
const (
	KindService Kind = "service"
	KindVolume  Kind = "volume"
	KindNetwork Kind = "network"
	KindPort    Kind = "port"
	KindConfig  Kind = "config"
	KindSecret  Kind = "secret"
)

// Kinds lists every entity kind.
var Kinds = []Kind{KindService, KindVolume, KindNetwork, KindPort, KindConfig, KindSecret}

// Relation identifies the type of an edge.
type Relation string

// Relation kinds, named after the service keys that declare them.
const (
	RelationExtends       Relation = "extends"
	RelationLinks         Relation = "links"
	RelationExternalLinks Relation = "external_links"
	RelationDependsOn     Relation = "depends_on"
	RelationVolumesFrom   Relation = "volumes_from"
	RelationVolumes       Relation = "volumes"
	RelationPorts         Relation = "ports"
	RelationNetworks      Relation = "networks"
	RelationConfigs       Relation = "configs"
	RelationSecrets       Relation = "secrets"
)

// Relations lists every relation kind in the order a service's relations
// are processed.
var Relations = []Relation{
	RelationExtends,
	RelationLinks,
	RelationExternalLinks,
	RelationDependsOn,
	RelationVolumesFrom,
	RelationVolumes,
	RelationPorts,
	RelationNetworks,
	RelationConfigs,
	RelationSecrets,
}

// Attribute keys of the logical graph.
const (
	AttrKind          = "kind"
	AttrLabel         = "label"
	AttrExternal      = "external"
	AttrVolumeType    = "volume_type"
	AttrProtocol      = "protocol"
	AttrRelation      = "relation"
	AttrBidirectional = "bidirectional"
)

// ID returns the composite node ID of an entity.
func ID(kind Kind, name string) string {
	return string(kind) + ":" + name
}

// KindOf returns the entity kind of a node.
func KindOf(n *graph.Node) Kind { return Kind(n.Attrs[AttrKind]) }

// RelationOf returns the relation kind of an edge.
func RelationOf(e *graph.Edge) Relation { return Relation(e.Attrs[AttrRelation]) }

// NameOf returns the entity name of a node: its ID without the kind prefix.
func NameOf(n *graph.Node) string {
	return strings.TrimPrefix(n.ID, n.Attrs[AttrKind]+":")
}
