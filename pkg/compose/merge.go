package compose

import (
	errs "github.com/matzehuels/composeviz/pkg/errors"
)

// Merge merges override over base and returns a new document. Neither
// input is modified.
//
// Mappings are merged key by key and recursively, lists are concatenated
// (base entries first) and any other override value replaces the base
// value. When both documents declare a version, the coerced versions must
// match or Merge fails with VERSION_MISMATCH. An override without a version
// adopts the base version.
func Merge(base, override *Mapping) (*Mapping, error) {
	if base.Has("version") && override.Has("version") {
		if bv, ov := Version(base), Version(override); bv != ov {
			return nil, errs.New(errs.ErrCodeVersionMismatch,
				"version %v of the override does not match version %v of the base configuration", ov, bv)
		}
	}
	if base == nil {
		return override.Clone(), nil
	}
	if override == nil {
		return base.Clone(), nil
	}
	return mergeMappings(base, override), nil
}

func mergeMappings(base, override *Mapping) *Mapping {
	out := base.Clone()
	for k, ov := range override.All() {
		bv, ok := out.Get(k)
		if !ok {
			out.Set(k, cloneValue(ov))
			continue
		}
		out.Set(k, mergeValues(bv, ov))
	}
	return out
}

func mergeValues(base, override any) any {
	switch ov := override.(type) {
	case *Mapping:
		if bm, ok := base.(*Mapping); ok {
			return mergeMappings(bm, ov)
		}
	case []any:
		if bl, ok := base.([]any); ok {
			out := make([]any, 0, len(bl)+len(ov))
			out = append(out, bl...)
			for _, item := range ov {
				out = append(out, cloneValue(item))
			}
			return out
		}
	}
	return cloneValue(override)
}
