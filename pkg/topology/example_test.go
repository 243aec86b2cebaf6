package topology_test

import (
	"fmt"

	"github.com/matzehuels/composeviz/pkg/compose"
	"github.com/matzehuels/composeviz/pkg/topology"
)

func ExampleBuilder_Build() {
	doc, _ := compose.Decode([]byte(`
version: "2"
services:
  web:
    image: nginx
    depends_on: [db]
    ports: ["8080:80"]
  db:
    image: postgres
`))

	g, err := topology.NewBuilder(0, nil).Build(doc, "")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, e := range g.Edges() {
		fmt.Printf("%s -> %s %s %q\n", e.From, e.To, topology.RelationOf(e), e.Attrs[topology.AttrLabel])
	}
	// Output:
	// service:web -> service:db depends_on ""
	// service:web -> port:8080 ports "80"
}

func ExampleWithoutPorts() {
	doc, _ := compose.Decode([]byte(`
version: "2"
services:
  web:
    ports: ["80:80"]
`))

	g, _ := topology.NewBuilder(topology.WithoutPorts, nil).Build(doc, "")
	fmt.Println("Nodes:", g.NodeCount())
	// Output:
	// Nodes: 1
}
