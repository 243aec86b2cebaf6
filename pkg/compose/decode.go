package compose

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

const mergeTag = "!!merge"

// Alias expansion may produce at most aliasBudgetFactor times the nodes of
// the document itself, plus aliasBudgetBase.
const (
	aliasBudgetBase   = 10000
	aliasBudgetFactor = 10
)

// Decode parses a YAML document into a [Mapping], keeping key order.
//
// Aliases are resolved and merge keys (<<) are expanded, explicit keys
// winning over merged ones. Self-referencing anchors, documents whose
// aliases expand far beyond their own size, and repeated keys in a mapping
// are rejected. An empty document yields an empty mapping; any
// other non-mapping document is rejected. Decode does not apply
// [InferVersion]; [ReadConfigurations] does so after merging.
func Decode(data []byte) (*Mapping, error) {
	var root yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return NewMapping(), nil
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "does not contain valid YAML")
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return NewMapping(), nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return NewMapping(), nil
	}

	d := &decoder{
		expanding: make(map[*yaml.Node]bool),
		budget:    aliasBudgetBase + aliasBudgetFactor*countNodes(node),
	}
	v, err := d.convert(node)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(*Mapping)
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "top-level YAML value must be a mapping")
	}
	return doc, nil
}

// InferVersion marks documents written for the Compose Specification as
// sectioned. Such files have no version key but keep their services under a
// top-level "services" mapping. Documents that declare a version are left
// untouched.
func InferVersion(doc *Mapping) {
	if doc.Has("version") {
		return
	}
	if _, ok := doc.GetMapping("services"); ok {
		doc.Set("version", "3")
	}
}

// decoder converts a node tree, tracking the anchors being expanded and the
// number of nodes produced.
type decoder struct {
	expanding map[*yaml.Node]bool
	budget    int
}

// countNodes counts the nodes of the tree without following aliases.
func countNodes(n *yaml.Node) int {
	c := 1
	for _, child := range n.Content {
		c += countNodes(child)
	}
	return c
}

func (d *decoder) convert(n *yaml.Node) (any, error) {
	d.budget--
	if d.budget < 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "document contains excessive aliasing")
	}

	switch n.Kind {
	case yaml.AliasNode:
		if d.expanding[n.Alias] {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "anchor %q at line %d contains itself", n.Value, n.Line)
		}
		d.expanding[n.Alias] = true
		defer delete(d.expanding, n.Alias)
		return d.convert(n.Alias)
	case yaml.MappingNode:
		return d.convertMapping(n)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := d.convert(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		return convertScalar(n)
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "unsupported YAML node at line %d", n.Line)
	}
}

func (d *decoder) convertMapping(n *yaml.Node) (*Mapping, error) {
	m := NewMapping()
	seen := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]

		if key.Kind == yaml.ScalarNode && key.ShortTag() == mergeTag {
			if err := d.mergeInto(m, value); err != nil {
				return nil, err
			}
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "mapping key at line %d must be a scalar", key.Line)
		}
		if seen[key.Value] {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "mapping key %q at line %d already defined", key.Value, key.Line)
		}
		seen[key.Value] = true

		v, err := d.convert(value)
		if err != nil {
			return nil, err
		}
		m.Set(key.Value, v)
	}
	return m, nil
}

// mergeInto expands a merge key value (a mapping or a list of mappings) into
// m without overwriting keys that are already set.
func (d *decoder) mergeInto(m *Mapping, value *yaml.Node) error {
	sources := []*yaml.Node{value}
	if value.Kind == yaml.SequenceNode {
		sources = value.Content
	}
	for _, src := range sources {
		v, err := d.convert(src)
		if err != nil {
			return err
		}
		sub, ok := v.(*Mapping)
		if !ok {
			return errs.New(errs.ErrCodeInvalidConfiguration, "merge key at line %d must reference a mapping", value.Line)
		}
		for k, item := range sub.All() {
			if !m.Has(k) {
				m.Set(k, item)
			}
		}
	}
	return nil
}

func convertScalar(n *yaml.Node) (any, error) {
	var err error
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err = n.Decode(&b); err == nil {
			return b, nil
		}
	case "!!int":
		var i int
		if err = n.Decode(&i); err == nil {
			return i, nil
		}
	case "!!float":
		var f float64
		if err = n.Decode(&f); err == nil {
			return f, nil
		}
	default:
		return n.Value, nil
	}
	return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "invalid scalar at line %d", n.Line)
}
