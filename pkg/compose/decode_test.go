package compose

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

func TestDecodeKeepsOrder(t *testing.T) {
	doc, err := Decode([]byte(`
version: "3.8"
services:
  zeta:
    image: nginx
  alpha:
    image: redis
  mid:
    image: postgres
`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	services := FetchServices(doc)
	want := []string{"zeta", "alpha", "mid"}
	if got := services.Keys(); !slices.Equal(got, want) {
		t.Errorf("service order = %v, want %v", got, want)
	}
}

func TestDecodeScalars(t *testing.T) {
	doc, err := Decode([]byte(`
int: 2
float: 2.1
quoted: "80"
bool: true
null_value: ~
list: [a, 1]
`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	checks := []struct {
		key  string
		want any
	}{
		{"int", 2},
		{"float", 2.1},
		{"quoted", "80"},
		{"bool", true},
		{"null_value", nil},
	}
	for _, c := range checks {
		got, ok := doc.Get(c.key)
		if !ok {
			t.Errorf("key %q missing", c.key)
			continue
		}
		if got != c.want {
			t.Errorf("Get(%q) = %#v, want %#v", c.key, got, c.want)
		}
	}

	list, _ := doc.Get("list")
	items, ok := list.([]any)
	if !ok || len(items) != 2 || items[0] != "a" || items[1] != 1 {
		t.Errorf("list = %#v, want [a 1]", list)
	}
}

func TestDecodeAnchorsAndMergeKeys(t *testing.T) {
	doc, err := Decode([]byte(`
x-defaults: &defaults
  image: app
  restart: always
services:
  web:
    <<: *defaults
    restart: "no"
  worker: *defaults
`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	services, _ := doc.GetMapping("services")
	web, _ := services.GetMapping("web")
	if v, _ := web.Get("image"); v != "app" {
		t.Errorf("web.image = %v, want app", v)
	}
	if v, _ := web.Get("restart"); v != "no" {
		t.Errorf("web.restart = %v, want explicit value \"no\"", v)
	}
	worker, ok := services.GetMapping("worker")
	if !ok || !worker.Has("image") {
		t.Errorf("worker alias not resolved: %v", worker.Keys())
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, input := range []string{"", "\n", "~\n", "# only a comment\n"} {
		doc, err := Decode([]byte(input))
		if err != nil {
			t.Errorf("Decode(%q) error = %v", input, err)
			continue
		}
		if doc.Len() != 0 {
			t.Errorf("Decode(%q) = %v, want empty mapping", input, doc.Keys())
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"invalid yaml", "services:\n  web: [unclosed\n"},
		{"top-level list", "- a\n- b\n"},
		{"top-level scalar", "hello\n"},
		{"complex key", "? [a, b]\n: c\n"},
		{"self-referencing anchor", "a: &a\n  b: *a\n"},
		{"self-referencing merge", "base: &base\n  <<: *base\n  image: nginx\n"},
		{"duplicate key", "services:\n  web:\n    image: nginx\n  web:\n    image: redis\n"},
		{"duplicate nested key", "services:\n  web:\n    image: nginx\n    image: redis\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
				t.Errorf("Decode() error = %v, want INVALID_CONFIGURATION", err)
			}
		})
	}
}

func TestDecodeExcessiveAliasing(t *testing.T) {
	var b strings.Builder
	b.WriteString("l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i < 9; i++ {
		fmt.Fprintf(&b, "l%d: &l%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*l%d", i-1)
		}
		b.WriteString("]\n")
	}

	_, err := Decode([]byte(b.String()))
	if !errs.Is(err, errs.ErrCodeInvalidConfiguration) {
		t.Fatalf("Decode() error = %v, want INVALID_CONFIGURATION", err)
	}
}

func TestDecodeRepeatedAliasWithinBudget(t *testing.T) {
	doc, err := Decode([]byte(`
x-env: &env
  LOG_LEVEL: debug
services:
  a: {environment: *env}
  b: {environment: *env}
  c:
    <<: {environment: *env}
    environment: {LOG_LEVEL: info}
`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := FetchServices(doc).Keys(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("services = %v, want [a b c]", got)
	}
}

func TestInferVersion(t *testing.T) {
	modern := MappingOf("services", MappingOf("web", nil))
	InferVersion(modern)
	if IsLegacy(modern) {
		t.Error("document with a services mapping and no version should be sectioned")
	}

	legacy := MappingOf("web", MappingOf("image", "nginx"))
	InferVersion(legacy)
	if legacy.Has("version") {
		t.Error("legacy document should not get a version")
	}

	explicit := MappingOf("version", 1, "services", MappingOf("image", "nginx"))
	InferVersion(explicit)
	if Version(explicit) != 1 {
		t.Errorf("explicit version changed to %v", Version(explicit))
	}
}
