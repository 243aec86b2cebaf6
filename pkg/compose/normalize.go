package compose

import (
	"errors"
	"strconv"
	"strings"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

// ErrNoSource is returned by [NormalizeVolumeMapping] for mounts that have
// no source, such as tmpfs mounts or anonymous volumes in long syntax.
var ErrNoSource = errors.New("volume mount has no source")

// Volume types.
const (
	VolumeTypeBind   = "bind"
	VolumeTypeVolume = "volume"
)

// DefaultProtocol is the port protocol used when none is given.
const DefaultProtocol = "tcp"

// Link is a normalized links or external_links entry.
type Link struct {
	Target string
	Alias  string
}

// VolumeMapping is a normalized service volume mount.
type VolumeMapping struct {
	Type     string // VolumeTypeBind, VolumeTypeVolume, or a long-syntax type
	Source   string
	Target   string
	ReadOnly bool
}

// PortMapping is a normalized port publication. HostIP is empty when the
// port binds to all interfaces.
type PortMapping struct {
	HostIP    string
	Published string
	Target    string
	Protocol  string
}

// Dependency is a normalized depends_on entry.
type Dependency struct {
	Service   string
	Condition string
}

// NetworkAttachment is a normalized service networks entry.
type NetworkAttachment struct {
	Network string
	Aliases []string
}

// FileReference is a normalized configs or secrets entry.
type FileReference struct {
	Source string
	Target string
}

// VolumesFrom is a normalized volumes_from entry.
type VolumesFrom struct {
	Name      string
	Container bool // references a container rather than a service
	ReadOnly  bool
}

// Extends is a normalized extends declaration.
type Extends struct {
	Service string
	File    string // empty when the service lives in the same file
}

// NormalizeLinkMapping parses "<target>[:<alias>]". The alias defaults to
// the target.
func NormalizeLinkMapping(v any) (Link, error) {
	switch x := v.(type) {
	case string:
		target, alias, found := strings.Cut(x, ":")
		if target == "" {
			return Link{}, invalid("link %q has no target", x)
		}
		if !found || alias == "" {
			alias = target
		}
		return Link{Target: target, Alias: alias}, nil
	case *Mapping:
		target := stringField(x, "target")
		if target == "" {
			return Link{}, invalid("link mapping has no target")
		}
		alias := stringField(x, "alias")
		if alias == "" {
			alias = target
		}
		return Link{Target: target, Alias: alias}, nil
	default:
		return Link{}, invalid("link must be a string, got %T", v)
	}
}

// NormalizeVolumeMapping parses "<source>[:<target>[:<options>]]" or a long
// syntax mount mapping.
//
// The target defaults to the source and the mount is read-only when the
// comma separated options contain "ro". The type is "volume" when the source
// names a key of the volumes section and "bind" otherwise. A long syntax
// mount without a source returns [ErrNoSource].
func NormalizeVolumeMapping(v any, volumes *Mapping) (VolumeMapping, error) {
	switch x := v.(type) {
	case string:
		parts := strings.SplitN(x, ":", 3)
		source := parts[0]
		if source == "" {
			return VolumeMapping{}, invalid("volume %q has no source", x)
		}
		target := source
		if len(parts) > 1 && parts[1] != "" {
			target = parts[1]
		}
		readOnly := false
		if len(parts) > 2 {
			for _, opt := range strings.Split(parts[2], ",") {
				if strings.TrimSpace(opt) == "ro" {
					readOnly = true
				}
			}
		}
		return VolumeMapping{
			Type:     volumeType(source, volumes),
			Source:   source,
			Target:   target,
			ReadOnly: readOnly,
		}, nil
	case *Mapping:
		source := stringField(x, "source")
		if source == "" {
			return VolumeMapping{}, ErrNoSource
		}
		mount := VolumeMapping{
			Type:     stringField(x, "type"),
			Source:   source,
			Target:   stringField(x, "target"),
			ReadOnly: boolField(x, "read_only"),
		}
		if mount.Type == "" {
			mount.Type = volumeType(source, volumes)
		}
		if mount.Target == "" {
			mount.Target = source
		}
		return mount, nil
	default:
		return VolumeMapping{}, invalid("volume must be a string or a mapping, got %T", v)
	}
}

func volumeType(source string, volumes *Mapping) string {
	if volumes.Has(source) {
		return VolumeTypeVolume
	}
	return VolumeTypeBind
}

// NormalizePortMapping parses "[host_ip:]published[:target][/proto]" or a
// long syntax port mapping.
//
// A single part means published and target are equal. Host IPv6 addresses
// must be bracketed ("[::1]:80:80"). An empty published part falls back to
// the target. The protocol defaults to [DefaultProtocol].
func NormalizePortMapping(v any) (PortMapping, error) {
	switch x := v.(type) {
	case int:
		p := strconv.Itoa(x)
		return PortMapping{Published: p, Target: p, Protocol: DefaultProtocol}, nil
	case string:
		return parsePortString(x)
	case *Mapping:
		p := PortMapping{
			HostIP:    stringField(x, "host_ip"),
			Published: stringField(x, "published"),
			Target:    stringField(x, "target"),
			Protocol:  stringField(x, "protocol"),
		}
		if p.Protocol == "" {
			p.Protocol = stringField(x, "proto")
		}
		return finishPort(p, "port mapping")
	default:
		return PortMapping{}, invalid("port must be a string, a number or a mapping, got %T", v)
	}
}

func parsePortString(s string) (PortMapping, error) {
	var p PortMapping
	rest := s
	if i := strings.LastIndex(rest, "/"); i >= 0 {
		p.Protocol = rest[i+1:]
		rest = rest[:i]
	}

	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]:")
		if end < 0 {
			return PortMapping{}, invalid("port %q has an unterminated host address", s)
		}
		p.HostIP = rest[1:end]
		rest = rest[end+2:]
		published, target, found := strings.Cut(rest, ":")
		p.Published, p.Target = published, target
		if !found {
			p.Target = published
		}
		return finishPort(p, s)
	}

	parts := strings.Split(rest, ":")
	switch len(parts) {
	case 1:
		p.Published, p.Target = parts[0], parts[0]
	case 2:
		p.Published, p.Target = parts[0], parts[1]
	case 3:
		p.HostIP, p.Published, p.Target = parts[0], parts[1], parts[2]
	default:
		return PortMapping{}, invalid("port %q has too many parts", s)
	}
	return finishPort(p, s)
}

func finishPort(p PortMapping, source string) (PortMapping, error) {
	if p.Target == "" {
		return PortMapping{}, invalid("port %q has no target", source)
	}
	if p.Published == "" {
		p.Published = p.Target
	}
	p.Protocol = strings.ToLower(p.Protocol)
	if p.Protocol == "" {
		p.Protocol = DefaultProtocol
	}
	return p, nil
}

// NormalizeDependencies parses depends_on, given either as a list of
// service names or as a mapping of service name to {condition: ...}.
func NormalizeDependencies(v any) ([]Dependency, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		deps := make([]Dependency, 0, len(x))
		for _, item := range x {
			name, ok := item.(string)
			if !ok || name == "" {
				return nil, invalid("depends_on entry must be a service name, got %v", item)
			}
			deps = append(deps, Dependency{Service: name})
		}
		return deps, nil
	case *Mapping:
		deps := make([]Dependency, 0, x.Len())
		for name, def := range x.All() {
			d := Dependency{Service: name}
			switch spec := def.(type) {
			case nil:
			case *Mapping:
				d.Condition = stringField(spec, "condition")
			default:
				return nil, invalid("depends_on %q must be a mapping, got %T", name, def)
			}
			deps = append(deps, d)
		}
		return deps, nil
	default:
		return nil, invalid("depends_on must be a list or a mapping, got %T", v)
	}
}

// NormalizeNetworkAttachments parses a service's networks, given either as
// a list of network names or as a mapping of network name to {aliases: ...}.
func NormalizeNetworkAttachments(v any) ([]NetworkAttachment, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []any:
		nets := make([]NetworkAttachment, 0, len(x))
		for _, item := range x {
			name, ok := item.(string)
			if !ok || name == "" {
				return nil, invalid("networks entry must be a network name, got %v", item)
			}
			nets = append(nets, NetworkAttachment{Network: name})
		}
		return nets, nil
	case *Mapping:
		nets := make([]NetworkAttachment, 0, x.Len())
		for name, def := range x.All() {
			n := NetworkAttachment{Network: name}
			switch spec := def.(type) {
			case nil:
			case *Mapping:
				aliases, err := stringList(spec, "aliases")
				if err != nil {
					return nil, err
				}
				n.Aliases = aliases
			default:
				return nil, invalid("network %q must be a mapping, got %T", name, def)
			}
			nets = append(nets, n)
		}
		return nets, nil
	default:
		return nil, invalid("networks must be a list or a mapping, got %T", v)
	}
}

// NormalizeFileReference parses a configs or secrets entry, given either as
// the source name or as a {source, target} mapping.
func NormalizeFileReference(v any) (FileReference, error) {
	switch x := v.(type) {
	case string:
		if x == "" {
			return FileReference{}, invalid("reference has no source")
		}
		return FileReference{Source: x}, nil
	case *Mapping:
		ref := FileReference{Source: stringField(x, "source"), Target: stringField(x, "target")}
		if ref.Source == "" {
			return FileReference{}, invalid("reference mapping has no source")
		}
		return ref, nil
	default:
		return FileReference{}, invalid("reference must be a string or a mapping, got %T", v)
	}
}

// NormalizeVolumesFrom parses "[service:|container:]name[:ro|:rw]".
func NormalizeVolumesFrom(v any) (VolumesFrom, error) {
	s, ok := v.(string)
	if !ok {
		return VolumesFrom{}, invalid("volumes_from entry must be a string, got %T", v)
	}

	var ref VolumesFrom
	rest := s
	if after, found := strings.CutPrefix(rest, "container:"); found {
		ref.Container = true
		rest = after
	} else {
		rest = strings.TrimPrefix(rest, "service:")
	}
	if before, found := strings.CutSuffix(rest, ":ro"); found {
		ref.ReadOnly = true
		rest = before
	} else {
		rest = strings.TrimSuffix(rest, ":rw")
	}
	if rest == "" {
		return VolumesFrom{}, invalid("volumes_from %q has no name", s)
	}
	ref.Name = rest
	return ref, nil
}

// NormalizeExtends parses an extends declaration, given either as the
// service name or as a {service, file} mapping. The boolean result is false
// when v is nil.
func NormalizeExtends(v any) (Extends, bool, error) {
	switch x := v.(type) {
	case nil:
		return Extends{}, false, nil
	case string:
		if x == "" {
			return Extends{}, false, invalid("extends has no service")
		}
		return Extends{Service: x}, true, nil
	case *Mapping:
		ext := Extends{Service: stringField(x, "service"), File: stringField(x, "file")}
		if ext.Service == "" {
			return Extends{}, false, invalid("extends mapping has no service")
		}
		return ext, true, nil
	default:
		return Extends{}, false, invalid("extends must be a string or a mapping, got %T", v)
	}
}

// Scalar renders a scalar value as a string. Mappings, lists and nil
// report false.
func Scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func stringField(m *Mapping, key string) string {
	v, _ := m.Get(key)
	s, _ := Scalar(v)
	return s
}

func boolField(m *Mapping, key string) bool {
	v, _ := m.Get(key)
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	default:
		return false
	}
}

func stringList(m *Mapping, key string) ([]string, error) {
	v, ok := m.Get(key)
	if !ok || v == nil {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil, invalid("%s must be a list, got %T", key, v)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := Scalar(item)
		if !ok {
			return nil, invalid("%s entries must be scalars, got %T", key, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidConfiguration, format, args...)
}
