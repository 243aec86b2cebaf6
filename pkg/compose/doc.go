// Package compose reads docker-compose configuration documents and exposes
// the pieces of them that describe topology.
//
// # Documents
//
// A document is decoded into a [Mapping], an insertion-ordered string-keyed
// map whose values are *Mapping, []any, string, int, float64, bool or nil.
// Keeping the source order makes graph construction deterministic.
//
//	doc, err := compose.ReadConfiguration("docker-compose.yml")
//
// # Schema Generations
//
// Documents without a version (or with version 1) use the legacy layout in
// which every top-level key is a service. Documents with version 2 or later
// group definitions under services, volumes, networks, configs and secrets.
// The Fetch* accessors hide the difference:
//
//	services := compose.FetchServices(doc)
//	volumes := compose.FetchVolumes(doc) // empty for legacy documents
//
// Files written for the Compose Specification omit the version key but keep
// the sectioned layout. [ReadConfigurations] recognizes them through
// [InferVersion].
//
// # Shorthand Forms
//
// Many service keys accept either a compact string or a structured mapping.
// The Normalize* functions turn both into one canonical record:
//
//	p, _ := compose.NormalizePortMapping("127.0.0.1:8080:80/udp")
//	// p == PortMapping{HostIP: "127.0.0.1", Published: "8080", Target: "80", Protocol: "udp"}
//
// # Override Files
//
// [FindConfigurationFiles] expands a list of inputs with their override
// files (docker-compose.override.yml next to docker-compose.yml) and
// [ReadConfigurations] merges them in order with [Merge].
package compose
