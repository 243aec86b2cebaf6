package compose_test

import (
	"fmt"

	"github.com/matzehuels/composeviz/pkg/compose"
)

func ExampleNormalizePortMapping() {
	p, _ := compose.NormalizePortMapping("127.0.0.1:8080:80/udp")
	fmt.Println(p.HostIP, p.Published, p.Target, p.Protocol)
	// Output:
	// 127.0.0.1 8080 80 udp
}

func ExampleNormalizeVolumeMapping() {
	volumes := compose.MappingOf("pgdata", nil)

	named, _ := compose.NormalizeVolumeMapping("pgdata:/var/lib/postgresql/data", volumes)
	bind, _ := compose.NormalizeVolumeMapping("./conf:/etc/app:ro", volumes)

	fmt.Println(named.Type, named.Source, named.ReadOnly)
	fmt.Println(bind.Type, bind.Source, bind.ReadOnly)
	// Output:
	// volume pgdata false
	// bind ./conf true
}

func ExampleFetchServices() {
	doc, _ := compose.Decode([]byte(`
version: "2"
services:
  web:
    image: nginx
  db:
    image: postgres
volumes:
  data: {}
`))

	fmt.Println(compose.FetchServices(doc).Keys())
	fmt.Println(compose.FetchVolumes(doc).Keys())
	// Output:
	// [web db]
	// [data]
}
