package topology

import (
	"testing"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
)

func TestRegistryIdempotent(t *testing.T) {
	tests := []struct {
		name string
		add  func(g *graph.Graph) *graph.Node
		id   string
	}{
		{"service", func(g *graph.Graph) *graph.Node { return AddService(g, "web", nil) }, "service:web"},
		{"volume", func(g *graph.Graph) *graph.Node { return AddVolume(g, "data", nil) }, "volume:data"},
		{"network", func(g *graph.Graph) *graph.Node { return AddNetwork(g, "front", nil) }, "network:front"},
		{"config", func(g *graph.Graph) *graph.Node { return AddConfig(g, "cfg", nil) }, "config:cfg"},
		{"secret", func(g *graph.Graph) *graph.Node { return AddSecret(g, "token", nil) }, "secret:token"},
		{"port", func(g *graph.Graph) *graph.Node {
			return AddPort(g, compose.PortMapping{Published: "80", Target: "80", Protocol: "tcp"})
		}, "port:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := graph.New(nil)
			first := tt.add(g)
			second := tt.add(g)

			if first != second {
				t.Error("second call returned a different node")
			}
			if first.ID != tt.id {
				t.Errorf("ID = %q, want %q", first.ID, tt.id)
			}
			if g.NodeCount() != 1 {
				t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
			}
		})
	}
}

func TestRegistryDoesNotReapplyAttributes(t *testing.T) {
	g := graph.New(nil)
	AddVolume(g, "data", graph.Attributes{AttrVolumeType: compose.VolumeTypeVolume})
	n := AddVolume(g, "data", graph.Attributes{AttrVolumeType: compose.VolumeTypeBind, AttrExternal: "true"})

	if got := n.Attrs[AttrVolumeType]; got != compose.VolumeTypeVolume {
		t.Errorf("volume_type = %q, want %q", got, compose.VolumeTypeVolume)
	}
	if n.Attrs.Bool(AttrExternal) {
		t.Error("external applied on repeat call")
	}
}

func TestRegistryDefaults(t *testing.T) {
	g := graph.New(nil)
	n := AddNetwork(g, "front", graph.Attributes{AttrLabel: "frontend_net"})

	if KindOf(n) != KindNetwork {
		t.Errorf("KindOf() = %q, want %q", KindOf(n), KindNetwork)
	}
	if n.Attrs[AttrLabel] != "frontend_net" {
		t.Errorf("label = %q, want frontend_net", n.Attrs[AttrLabel])
	}

	ext := AddExternalService(g, "legacy")
	if !ext.Attrs.Bool(AttrExternal) || KindOf(ext) != KindService {
		t.Errorf("external service attrs = %v", ext.Attrs)
	}
}

func TestDeclareServiceClearsExternal(t *testing.T) {
	g := graph.New(nil)
	AddExternalService(g, "db")

	n := DeclareService(g, "db")
	if n.Attrs.Bool(AttrExternal) {
		t.Errorf("declared service attrs = %v, want no %s", n.Attrs, AttrExternal)
	}
	if got := AddExternalService(g, "db"); got.Attrs.Bool(AttrExternal) {
		t.Errorf("external reference re-marked declared service: %v", got.Attrs)
	}
}

func TestPortName(t *testing.T) {
	tests := []struct {
		port      compose.PortMapping
		wantName  string
		wantLabel string
	}{
		{compose.PortMapping{Published: "443", Target: "443", Protocol: "tcp"}, "443", "443"},
		{compose.PortMapping{Published: "53", Target: "53", Protocol: "udp"}, "53/udp", "53"},
		{compose.PortMapping{HostIP: "127.0.0.1", Published: "80", Target: "80", Protocol: "tcp"}, "127.0.0.1:80", "127.0.0.1:80"},
		{compose.PortMapping{HostIP: "::1", Published: "80", Target: "8080", Protocol: "udp"}, "[::1]:80/udp", "[::1]:80"},
	}

	for _, tt := range tests {
		if got := PortName(tt.port); got != tt.wantName {
			t.Errorf("PortName(%+v) = %q, want %q", tt.port, got, tt.wantName)
		}
		g := graph.New(nil)
		n := AddPort(g, tt.port)
		if n.Attrs[AttrLabel] != tt.wantLabel {
			t.Errorf("AddPort(%+v) label = %q, want %q", tt.port, n.Attrs[AttrLabel], tt.wantLabel)
		}
		if n.Attrs[AttrProtocol] != tt.port.Protocol {
			t.Errorf("AddPort(%+v) protocol = %q", tt.port, n.Attrs[AttrProtocol])
		}
	}
}

func TestPortsDistinctByProtocol(t *testing.T) {
	g := graph.New(nil)
	tcp := AddPort(g, compose.PortMapping{Published: "53", Target: "53", Protocol: "tcp"})
	udp := AddPort(g, compose.PortMapping{Published: "53", Target: "53", Protocol: "udp"})

	if tcp == udp || g.NodeCount() != 2 {
		t.Errorf("tcp and udp port 53 should be distinct entities, got %d nodes", g.NodeCount())
	}
}

func TestFind(t *testing.T) {
	g := graph.New(nil)
	AddService(g, "web", nil)

	if n, err := FindService(g, "web"); err != nil || n.ID != "service:web" {
		t.Errorf("FindService(web) = %v, %v", n, err)
	}

	finders := map[string]func(*graph.Graph, string) (*graph.Node, error){
		"FindService": FindService,
		"FindVolume":  FindVolume,
		"FindNetwork": FindNetwork,
		"FindPort":    FindPort,
		"FindConfig":  FindConfig,
		"FindSecret":  FindSecret,
	}
	for name, find := range finders {
		if _, err := find(g, "ghost"); !errs.Is(err, errs.ErrCodeNotFound) {
			t.Errorf("%s(ghost) error = %v, want NOT_FOUND", name, err)
		}
	}
	if g.NodeCount() != 1 {
		t.Errorf("Find created nodes: NodeCount() = %d", g.NodeCount())
	}
}
