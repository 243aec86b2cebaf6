package topology

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
)

func decode(t *testing.T, src string) *compose.Mapping {
	t.Helper()
	doc, err := compose.Decode([]byte(src))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	compose.InferVersion(doc)
	return doc
}

func build(t *testing.T, flags Flags, src string) *graph.Graph {
	t.Helper()
	g, err := NewBuilder(flags, nil).Build(decode(t, src), "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return g
}

func nodeIDs(g *graph.Graph) []string {
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestBuildDependsOn(t *testing.T) {
	doc := compose.MappingOf(
		"version", 2,
		"services", compose.MappingOf(
			"web", compose.MappingOf("depends_on", []any{"db"}),
			"db", compose.NewMapping(),
		),
	)

	g, err := NewBuilder(0, nil).Build(doc, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if want := []string{"service:web", "service:db"}; !slices.Equal(nodeIDs(g), want) {
		t.Errorf("nodes = %v, want %v", nodeIDs(g), want)
	}
	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", len(edges))
	}
	if e := edges[0]; e.From != "service:web" || e.To != "service:db" || RelationOf(e) != RelationDependsOn {
		t.Errorf("edge = %s -> %s (%s)", e.From, e.To, RelationOf(e))
	}
}

func TestBuildUnknownServiceFails(t *testing.T) {
	doc := compose.MappingOf(
		"version", 2,
		"services", compose.MappingOf(
			"web", compose.MappingOf("depends_on", []any{"ghost"}),
		),
	)

	g, err := NewBuilder(0, nil).Build(doc, "")
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("Build() error = %v, want NOT_FOUND", err)
	}
	if g != nil {
		t.Error("Build() returned a partial graph")
	}
}

func TestBuildLegacyDocument(t *testing.T) {
	g := build(t, 0, `
version: 1
web:
  image: nginx
  links: ["db:database"]
  ports: ["80:80"]
db:
  image: postgres
`)

	if _, ok := g.Node("service:version"); ok {
		t.Error("legacy version key registered as a service")
	}
	links := edgesOf(g, RelationLinks)
	if len(links) != 1 || links[0].Attrs[AttrLabel] != "database" {
		t.Errorf("links = %v", links)
	}
	if _, ok := g.Node("port:80"); !ok {
		t.Errorf("nodes = %v, want port:80", nodeIDs(g))
	}
}

const fullConfig = `
version: "3.8"
services:
  proxy:
    image: nginx
    ports:
      - "80:80"
      - "53:53/udp"
    networks:
      front:
        aliases: [www, web]
    depends_on:
      app:
        condition: service_healthy
  app:
    image: app
    links: ["cache"]
    external_links: ["legacy_db:db"]
    volumes:
      - data:/var/lib/app
      - ./conf:/etc/app:ro
      - type: tmpfs
        target: /tmp
    volumes_from: ["container:sidecar:ro"]
    networks: [front, back]
    configs:
      - source: app_cfg
        target: /etc/app.cfg
    secrets: [token]
  cache:
    image: redis
volumes:
  data: {}
networks:
  front:
    name: frontend
  back:
    external: true
configs:
  app_cfg:
    file: ./app.cfg
secrets:
  token:
    external: true
`

func TestBuildFullConfiguration(t *testing.T) {
	g := build(t, 0, fullConfig)

	wantNodes := []string{
		"volume:data", "network:front", "network:back", "config:app_cfg", "secret:token",
		"service:proxy", "service:app", "service:cache",
		"port:80", "port:53/udp",
		"service:legacy_db", "service:sidecar", "volume:./conf",
	}
	if got := nodeIDs(g); !slices.Equal(got, wantNodes) {
		t.Errorf("nodes = %v\nwant %v", got, wantNodes)
	}

	front, _ := g.Node("network:front")
	if front.Attrs[AttrLabel] != "frontend" {
		t.Errorf("network label = %q, want frontend", front.Attrs[AttrLabel])
	}
	back, _ := g.Node("network:back")
	if !back.Attrs.Bool(AttrExternal) {
		t.Error("external network not marked")
	}
	data, _ := g.Node("volume:data")
	if data.Attrs[AttrVolumeType] != compose.VolumeTypeVolume {
		t.Errorf("data volume_type = %q", data.Attrs[AttrVolumeType])
	}
	conf, _ := g.Node("volume:./conf")
	if conf.Attrs[AttrVolumeType] != compose.VolumeTypeBind {
		t.Errorf("./conf volume_type = %q", conf.Attrs[AttrVolumeType])
	}
	udp, _ := g.Node("port:53/udp")
	if udp.Attrs[AttrProtocol] != "udp" {
		t.Errorf("udp port protocol = %q", udp.Attrs[AttrProtocol])
	}

	counts := map[Relation]int{}
	for _, e := range g.Edges() {
		counts[RelationOf(e)]++
	}
	want := map[Relation]int{
		RelationPorts: 2, RelationNetworks: 3, RelationDependsOn: 1,
		RelationLinks: 1, RelationExternalLinks: 1, RelationVolumes: 2,
		RelationVolumesFrom: 1, RelationConfigs: 1, RelationSecrets: 1,
	}
	for rel, n := range want {
		if counts[rel] != n {
			t.Errorf("%s edges = %d, want %d", rel, counts[rel], n)
		}
	}

	proxyFront := g.EdgesBetween("service:proxy", "network:front")
	if len(proxyFront) != 1 || proxyFront[0].Attrs[AttrLabel] != "www, web" {
		t.Errorf("proxy network edge = %v", proxyFront)
	}
	dep := edgesOf(g, RelationDependsOn)[0]
	if dep.Attrs[AttrLabel] != "service_healthy" || !dep.Attrs.Bool(AttrBidirectional) {
		t.Errorf("depends_on attrs = %v", dep.Attrs)
	}
}

func TestBuildFlags(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		gone  []Kind
		kept  []Kind
	}{
		{"without volumes", WithoutVolumes, []Kind{KindVolume}, []Kind{KindNetwork, KindPort, KindConfig, KindSecret}},
		{"without networks", WithoutNetworks, []Kind{KindNetwork}, []Kind{KindVolume, KindPort}},
		{"without ports", WithoutPorts, []Kind{KindPort}, []Kind{KindVolume, KindNetwork}},
		{"without configs and secrets", WithoutConfigs | WithoutSecrets, []Kind{KindConfig, KindSecret}, []Kind{KindPort}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := build(t, tt.flags, fullConfig)
			kinds := map[Kind]int{}
			for _, n := range g.Nodes() {
				kinds[KindOf(n)]++
			}
			for _, k := range tt.gone {
				if kinds[k] != 0 {
					t.Errorf("%d %s nodes present, want none", kinds[k], k)
				}
			}
			for _, k := range tt.kept {
				if kinds[k] == 0 {
					t.Errorf("no %s nodes, want some", k)
				}
			}
		})
	}

	g := build(t, WithoutVolumes, fullConfig)
	if n := len(edgesOf(g, RelationVolumesFrom)); n != 0 {
		t.Errorf("WithoutVolumes kept %d volumes_from edges", n)
	}
	if !WithoutVolumes.Has(WithoutVolumes) || WithoutVolumes.Has(WithoutPorts) {
		t.Error("Flags.Has() mismatch")
	}
}

func TestBuildInvalidShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"links not a list", "version: '2'\nservices:\n  web:\n    links: db\n"},
		{"bad port", "version: '2'\nservices:\n  web:\n    ports: ['1:2:3:4']\n"},
		{"bad depends_on", "version: '2'\nservices:\n  web:\n    depends_on: db\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewBuilder(0, nil).Build(decode(t, tt.src), "")
			if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
				t.Errorf("Build() error = %v, want INVALID_CONFIGURATION", err)
			}
			if g != nil {
				t.Error("Build() returned a graph on error")
			}
		})
	}
}

func TestBuildNullService(t *testing.T) {
	g := build(t, 0, "version: '2'\nservices:\n  web:\n  db: {depends_on: [web]}\n")
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("got %d nodes, %d edges, want 2, 1", g.NodeCount(), g.EdgeCount())
	}
}

func writeCompose(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildExtendsFile(t *testing.T) {
	dir := t.TempDir()
	writeCompose(t, dir, "common/base.yml", `
version: "2"
services:
  base:
    image: app
    volumes: ["shared:/data"]
volumes:
  shared: {}
`)
	main := writeCompose(t, dir, "docker-compose.yml", `
version: "2"
services:
  web:
    extends:
      file: common/base.yml
      service: base
`)

	doc, err := compose.ReadConfiguration(main)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewBuilder(0, nil).Build(doc, main)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	ext := g.EdgesBetween("service:web", "service:base")
	if len(ext) != 1 || RelationOf(ext[0]) != RelationExtends {
		t.Errorf("extends edge = %v", ext)
	}
	if _, ok := g.Node("volume:shared"); !ok {
		t.Errorf("volumes of the extended file not processed: %v", nodeIDs(g))
	}
}

func TestBuildExtendsChain(t *testing.T) {
	dir := t.TempDir()
	writeCompose(t, dir, "common/deeper.yml", `
version: "2"
services:
  deep:
    image: app
`)
	writeCompose(t, dir, "common/base.yml", `
version: "2"
services:
  base:
    extends:
      file: deeper.yml
      service: deep
`)
	main := writeCompose(t, dir, "docker-compose.yml", `
version: "2"
services:
  web:
    extends:
      file: common/base.yml
      service: base
`)

	doc, err := compose.ReadConfiguration(main)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewBuilder(0, nil).Build(doc, main)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, id := range []string{"service:web", "service:base", "service:deep"} {
		if _, ok := g.Node(id); !ok {
			t.Errorf("node %s missing: %v", id, nodeIDs(g))
		}
	}
	if e := g.EdgesBetween("service:base", "service:deep"); len(e) != 1 || RelationOf(e[0]) != RelationExtends {
		t.Errorf("base -> deep extends edge = %v", e)
	}
}

func TestBuildExternalLinkLaterDeclared(t *testing.T) {
	dir := t.TempDir()
	writeCompose(t, dir, "base.yml", `
version: "2"
services:
  base:
    image: app
  db:
    image: postgres
`)
	main := writeCompose(t, dir, "docker-compose.yml", `
version: "2"
services:
  web:
    image: web
    external_links: [db]
  worker:
    extends:
      file: base.yml
      service: base
`)

	doc, err := compose.ReadConfiguration(main)
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewBuilder(0, nil).Build(doc, main)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	db, ok := g.Node("service:db")
	if !ok {
		t.Fatalf("service:db missing: %v", nodeIDs(g))
	}
	if db.Attrs.Bool(AttrExternal) {
		t.Errorf("service:db attrs = %v, want declared service", db.Attrs)
	}
}

func TestBuildExtendsSameFile(t *testing.T) {
	g := build(t, 0, `
version: "2"
services:
  base:
    image: app
  web:
    extends: base
`)
	if e := edgesOf(g, RelationExtends); len(e) != 1 || e[0].To != "service:base" {
		t.Errorf("extends edges = %v", e)
	}
}

func TestBuildExtendsCycleTerminates(t *testing.T) {
	dir := t.TempDir()
	a := writeCompose(t, dir, "a.yml", `
version: "2"
services:
  alpha:
    extends:
      file: b.yml
      service: beta
`)
	writeCompose(t, dir, "b.yml", `
version: "2"
services:
  beta:
    extends:
      file: ./a.yml
      service: alpha
`)

	doc, err := compose.ReadConfiguration(a)
	if err != nil {
		t.Fatal(err)
	}

	loads := 0
	b := NewBuilder(0, nil)
	b.Loader = func(path string) (*compose.Mapping, error) {
		loads++
		return compose.ReadConfiguration(path)
	}

	g, err := b.Build(doc, a)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if loads != 1 {
		t.Errorf("loader called %d times, want 1", loads)
	}
	if len(edgesOf(g, RelationExtends)) != 2 {
		t.Errorf("extends edges = %d, want 2", len(edgesOf(g, RelationExtends)))
	}
}

func TestBuildExtendsLoaderError(t *testing.T) {
	dir := t.TempDir()
	main := writeCompose(t, dir, "docker-compose.yml", `
version: "2"
services:
  web:
    extends:
      file: missing.yml
      service: base
`)
	doc, err := compose.ReadConfiguration(main)
	if err != nil {
		t.Fatal(err)
	}

	g, err := NewBuilder(0, nil).Build(doc, main)
	if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
		t.Errorf("Build() error = %v, want INVALID_CONFIGURATION", err)
	}
	if g != nil {
		t.Error("Build() returned a graph on error")
	}
}

func TestBuilderConcurrentUse(t *testing.T) {
	b := NewBuilder(0, nil)
	doc := decode(t, fullConfig)

	done := make(chan int, 4)
	for range 4 {
		go func() {
			g, err := b.Build(doc, "")
			if err != nil {
				done <- -1
				return
			}
			done <- g.NodeCount()
		}()
	}
	first := <-done
	for range 3 {
		if n := <-done; n != first || n <= 0 {
			t.Errorf("concurrent builds disagree: %d vs %d", n, first)
		}
	}
}
