package topology

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
)

// Flags select which kinds of entities a build leaves out.
type Flags int

const (
	// WithoutVolumes skips volumes, volume mounts and volumes_from.
	WithoutVolumes Flags = 1 << iota
	// WithoutNetworks skips networks and network attachments.
	WithoutNetworks
	// WithoutPorts skips published ports.
	WithoutPorts
	// WithoutConfigs skips configs.
	WithoutConfigs
	// WithoutSecrets skips secrets.
	WithoutSecrets
)

// Has reports whether all bits of f2 are set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Loader reads the configuration file an extends declaration points to.
type Loader func(path string) (*compose.Mapping, error)

// Builder builds topology graphs. It holds configuration only, so a single
// Builder can serve concurrent builds.
type Builder struct {
	Flags  Flags
	Loader Loader
	Logger *log.Logger
}

// NewBuilder creates a builder that loads extended files from disk.
// If logger is nil, log output is discarded.
func NewBuilder(flags Flags, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Builder{
		Flags:  flags,
		Loader: compose.ReadConfiguration,
		Logger: logger,
	}
}

// Build constructs the graph of doc. path is the file doc was read from;
// files named by extends declarations are resolved relative to its
// directory. Each file is processed at most once per build, so extends
// cycles between files terminate.
//
// Build is all-or-nothing: on error it returns a nil graph.
func (b *Builder) Build(doc *compose.Mapping, path string) (*graph.Graph, error) {
	p := &pass{
		Builder: *b,
		g:       graph.New(nil),
		visited: make(map[string]bool),
	}
	if p.Loader == nil {
		p.Loader = compose.ReadConfiguration
	}
	if p.Logger == nil {
		p.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if path != "" {
		p.visited[canonicalPath(path)] = true
	}

	if err := p.process(doc, path); err != nil {
		return nil, err
	}
	return p.g, nil
}

// pass is the state of a single build. It carries a copy of the builder
// configuration.
type pass struct {
	Builder
	g       *graph.Graph
	visited map[string]bool
}

func (p *pass) process(doc *compose.Mapping, path string) error {
	s := compose.FetchSections(doc)
	p.Logger.Debug("processing configuration",
		"path", path,
		"version", compose.Version(doc),
		"services", s.Services.Len(),
		"volumes", s.Volumes.Len(),
		"networks", s.Networks.Len(),
		"configs", s.Configs.Len(),
		"secrets", s.Secrets.Len())

	p.registerDeclared(s)

	for name, def := range s.Services.All() {
		if _, ok := serviceDefinition(def); ok {
			DeclareService(p.g, name)
		}
	}

	for name, def := range s.Services.All() {
		svc, ok := serviceDefinition(def)
		if !ok {
			continue
		}
		if err := p.service(name, svc, path, s.Volumes); err != nil {
			return fmt.Errorf("service %q: %w", name, err)
		}
	}
	return nil
}

func (p *pass) registerDeclared(s compose.Sections) {
	if !p.Flags.Has(WithoutVolumes) {
		for name, def := range s.Volumes.All() {
			attrs := definitionAttrs(def)
			attrs[AttrVolumeType] = compose.VolumeTypeVolume
			AddVolume(p.g, name, attrs)
		}
	}
	if !p.Flags.Has(WithoutNetworks) {
		for name, def := range s.Networks.All() {
			AddNetwork(p.g, name, definitionAttrs(def))
		}
	}
	if !p.Flags.Has(WithoutConfigs) {
		for name, def := range s.Configs.All() {
			AddConfig(p.g, name, definitionAttrs(def))
		}
	}
	if !p.Flags.Has(WithoutSecrets) {
		for name, def := range s.Secrets.All() {
			AddSecret(p.g, name, definitionAttrs(def))
		}
	}
}

func (p *pass) service(name string, def *compose.Mapping, path string, volumes *compose.Mapping) error {
	if v, ok := def.Get("extends"); ok {
		ext, found, err := compose.NormalizeExtends(v)
		if err != nil {
			return err
		}
		if found {
			if ext.File != "" {
				if err := p.extend(ext.File, path); err != nil {
					return err
				}
			}
			if _, err := AddExtendsRelation(p.g, name, ext.Service); err != nil {
				return err
			}
		}
	}

	if err := eachItem(def, "links", func(item any) error {
		link, err := compose.NormalizeLinkMapping(item)
		if err != nil {
			return err
		}
		_, err = AddLinkRelation(p.g, name, link)
		return err
	}); err != nil {
		return err
	}

	if err := eachItem(def, "external_links", func(item any) error {
		link, err := compose.NormalizeLinkMapping(item)
		if err != nil {
			return err
		}
		_, err = AddExternalLinkRelation(p.g, name, link)
		return err
	}); err != nil {
		return err
	}

	deps, err := compose.NormalizeDependencies(value(def, "depends_on"))
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if _, err := AddDependsRelation(p.g, name, dep); err != nil {
			return err
		}
	}

	if !p.Flags.Has(WithoutVolumes) {
		if err := p.volumes(name, def, volumes); err != nil {
			return err
		}
	}

	if !p.Flags.Has(WithoutPorts) {
		if err := eachItem(def, "ports", func(item any) error {
			port, err := compose.NormalizePortMapping(item)
			if err != nil {
				return err
			}
			_, err = AddPortRelation(p.g, name, port)
			return err
		}); err != nil {
			return err
		}
	}

	if !p.Flags.Has(WithoutNetworks) {
		nets, err := compose.NormalizeNetworkAttachments(value(def, "networks"))
		if err != nil {
			return err
		}
		for _, att := range nets {
			if _, err := AddNetworkRelation(p.g, name, att); err != nil {
				return err
			}
		}
	}

	if !p.Flags.Has(WithoutConfigs) {
		if err := eachItem(def, "configs", func(item any) error {
			ref, err := compose.NormalizeFileReference(item)
			if err != nil {
				return err
			}
			_, err = AddConfigRelation(p.g, name, ref)
			return err
		}); err != nil {
			return err
		}
	}

	if !p.Flags.Has(WithoutSecrets) {
		if err := eachItem(def, "secrets", func(item any) error {
			ref, err := compose.NormalizeFileReference(item)
			if err != nil {
				return err
			}
			_, err = AddSecretRelation(p.g, name, ref)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) volumes(name string, def, volumes *compose.Mapping) error {
	if err := eachItem(def, "volumes_from", func(item any) error {
		ref, err := compose.NormalizeVolumesFrom(item)
		if err != nil {
			return err
		}
		_, err = AddVolumesFromRelation(p.g, name, ref)
		return err
	}); err != nil {
		return err
	}

	return eachItem(def, "volumes", func(item any) error {
		mount, err := compose.NormalizeVolumeMapping(item, volumes)
		if errors.Is(err, compose.ErrNoSource) {
			p.Logger.Debug("skipping mount without source", "service", name)
			return nil
		}
		if err != nil {
			return err
		}
		_, err = AddVolumeRelation(p.g, name, mount)
		return err
	})
}

// extend processes the file an extends declaration names into the graph,
// unless it was already processed during this build.
func (p *pass) extend(file, from string) error {
	target := file
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(from), file)
	}

	key := canonicalPath(target)
	if p.visited[key] {
		p.Logger.Debug("extended configuration already processed", "file", target)
		return nil
	}
	p.visited[key] = true

	p.Logger.Debug("processing extended configuration", "file", target, "from", from)
	doc, err := p.Loader(target)
	if err != nil {
		return err
	}
	return p.process(doc, target)
}

// serviceDefinition returns the mapping of a service entry. A nil entry is
// an empty service; scalars such as the legacy top-level version key are
// not services.
func serviceDefinition(def any) (*compose.Mapping, bool) {
	switch x := def.(type) {
	case nil:
		return compose.NewMapping(), true
	case *compose.Mapping:
		return x, true
	default:
		return nil, false
	}
}

// definitionAttrs derives node attributes from a top-level volume,
// network, config or secret definition.
func definitionAttrs(def any) graph.Attributes {
	attrs := graph.Attributes{}
	m, ok := def.(*compose.Mapping)
	if !ok {
		return attrs
	}
	if v, ok := m.Get("name"); ok {
		if name, ok := compose.Scalar(v); ok && name != "" {
			attrs[AttrLabel] = name
		}
	}
	switch ext := value(m, "external").(type) {
	case bool:
		attrs.SetBool(AttrExternal, ext)
	case *compose.Mapping:
		attrs.SetBool(AttrExternal, true)
		if v, ok := ext.Get("name"); ok {
			if name, ok := compose.Scalar(v); ok && name != "" {
				attrs[AttrLabel] = name
			}
		}
	}
	return attrs
}

func value(m *compose.Mapping, key string) any {
	v, _ := m.Get(key)
	return v
}

// eachItem calls fn for every entry of the list under key. A missing or
// null key is an empty list.
func eachItem(def *compose.Mapping, key string, fn func(item any) error) error {
	v := value(def, key)
	if v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return errs.New(errs.ErrCodeInvalidConfiguration, "%s must be a list, got %T", key, v)
	}
	for _, item := range items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
