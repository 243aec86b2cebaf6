package compose

import (
	"strconv"
	"strings"
)

// Section names of the sectioned (version 2 and later) layout.
const (
	SectionServices = "services"
	SectionVolumes  = "volumes"
	SectionNetworks = "networks"
	SectionConfigs  = "configs"
	SectionSecrets  = "secrets"
)

// sectionedVersion is the first schema version that groups definitions
// into sections.
const sectionedVersion = 2

// Sections bundles the five topology sections of a document.
// None of the fields is ever nil.
type Sections struct {
	Services *Mapping
	Volumes  *Mapping
	Networks *Mapping
	Configs  *Mapping
	Secrets  *Mapping
}

// Version returns the coerced schema version of doc.
//
// Integers and floats are used as-is and strings are parsed as decimals
// ("3.8" is 3.8). A missing, malformed or non-numeric version is 1.
func Version(doc *Mapping) float64 {
	v, ok := doc.Get("version")
	if !ok {
		return 1
	}
	switch x := v.(type) {
	case int:
		return float64(x)
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 1
		}
		return f
	default:
		return 1
	}
}

// IsLegacy reports whether doc uses the flat version 1 layout.
func IsLegacy(doc *Mapping) bool {
	return Version(doc) < sectionedVersion
}

// FetchServices returns the service definitions of doc. For legacy
// documents this is the document itself.
func FetchServices(doc *Mapping) *Mapping {
	if IsLegacy(doc) {
		if doc == nil {
			return NewMapping()
		}
		return doc
	}
	return section(doc, SectionServices)
}

// FetchVolumes returns the named volume definitions of doc.
func FetchVolumes(doc *Mapping) *Mapping { return sectionFor(doc, SectionVolumes) }

// FetchNetworks returns the network definitions of doc.
func FetchNetworks(doc *Mapping) *Mapping { return sectionFor(doc, SectionNetworks) }

// FetchConfigs returns the config definitions of doc.
func FetchConfigs(doc *Mapping) *Mapping { return sectionFor(doc, SectionConfigs) }

// FetchSecrets returns the secret definitions of doc.
func FetchSecrets(doc *Mapping) *Mapping { return sectionFor(doc, SectionSecrets) }

// FetchSections returns all five sections of doc at once.
func FetchSections(doc *Mapping) Sections {
	return Sections{
		Services: FetchServices(doc),
		Volumes:  FetchVolumes(doc),
		Networks: FetchNetworks(doc),
		Configs:  FetchConfigs(doc),
		Secrets:  FetchSecrets(doc),
	}
}

// sectionFor returns an empty mapping for legacy documents, which have no
// sections besides their services.
func sectionFor(doc *Mapping, name string) *Mapping {
	if IsLegacy(doc) {
		return NewMapping()
	}
	return section(doc, name)
}

func section(doc *Mapping, name string) *Mapping {
	if m, ok := doc.GetMapping(name); ok {
		return m
	}
	return NewMapping()
}
