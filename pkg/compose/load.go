package compose

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

// DefaultFile is the configuration file read when no input is given.
const DefaultFile = "docker-compose.yml"

// ReadConfiguration reads a single configuration file.
func ReadConfiguration(path string) (*Mapping, error) {
	return ReadConfigurations(path)
}

// ReadConfigurations reads the files in order and merges each one over the
// result of the previous ones. The merged document goes through
// [InferVersion].
func ReadConfigurations(paths ...string) (*Mapping, error) {
	if len(paths) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfiguration, "no configuration file given")
	}

	var doc *Mapping
	for _, path := range paths {
		m, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			doc = m
			continue
		}
		if doc, err = Merge(doc, m); err != nil {
			return nil, withPath(err, path)
		}
	}
	InferVersion(doc)
	return doc, nil
}

func readFile(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "file does not exist").WithPath(path)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidConfiguration, err, "cannot read file").WithPath(path)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return doc, nil
}

func withPath(err error, path string) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e.WithPath(path)
	}
	return err
}

// FindOverride returns the override file that belongs to path, if it
// exists: docker-compose.yml has docker-compose.override.yml.
func FindOverride(path string) (string, bool) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	override := filepath.Join(filepath.Dir(path), base+".override"+ext)
	if info, err := os.Stat(override); err == nil && !info.IsDir() {
		return override, true
	}
	return "", false
}

// FindConfigurationFiles checks that every path exists and returns the list
// of files to read, each followed by its override file unless
// ignoreOverride is set.
func FindConfigurationFiles(ignoreOverride bool, paths ...string) ([]string, error) {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, errs.New(errs.ErrCodeInvalidConfiguration, "file does not exist").WithPath(path)
		}
		files = append(files, path)

		if ignoreOverride {
			continue
		}
		if override, ok := FindOverride(path); ok {
			files = append(files, override)
		}
	}
	return files, nil
}
