// Package pipeline provides the load → build → style → render pipeline
// shared by the CLI and the HTTP server.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: find the configuration files (plus the override file) and merge
//     them into one document
//  2. Build: construct the logical topology graph
//  3. Style: annotate a copy with Graphviz attributes and apply the
//     include/exclude filter
//  4. Render: produce DOT, JSON or a Graphviz artifact (SVG, PNG, JPEG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Files:  []string{"docker-compose.yml"},
//	    Format: pipeline.FormatSVG,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("docker-compose.svg", result.Artifact, 0644)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/render/nodelink"
	"github.com/matzehuels/composeviz/pkg/style"
	"github.com/matzehuels/composeviz/pkg/topology"
)

// Format constants for output formats.
const (
	FormatDOT  = nodelink.FormatDOT
	FormatSVG  = nodelink.FormatSVG
	FormatPNG  = nodelink.FormatPNG
	FormatJPG  = nodelink.FormatJPG
	FormatPDF  = nodelink.FormatPDF
	FormatJSON = "json"
)

// DefaultFormat is the artifact format used when none is given.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJPG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	"jpeg":     true,
	"gif":      true,
	"xdot":     true,
	"plain":    true,
}

// ContentTypes maps output formats to MIME types.
var ContentTypes = map[string]string{
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatJPG:  "image/jpeg",
	"jpeg":     "image/jpeg",
	"gif":      "image/gif",
	FormatPDF:  "application/pdf",
	FormatJSON: "application/json",
	"xdot":     "text/vnd.graphviz",
	"plain":    "text/plain",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
type Options struct {
	// Load options
	Files          []string `json:"files,omitempty"`
	IgnoreOverride bool     `json:"ignore_override,omitempty"`
	// Document is an in-memory configuration. When set, Files is ignored
	// and Path names the document for extends resolution.
	Document []byte `json:"-"`
	Path     string `json:"path,omitempty"`

	// Build options
	NoVolumes  bool `json:"no_volumes,omitempty"`
	NoNetworks bool `json:"no_networks,omitempty"`
	NoPorts    bool `json:"no_ports,omitempty"`
	NoConfigs  bool `json:"no_configs,omitempty"`
	NoSecrets  bool `json:"no_secrets,omitempty"`

	// Style options
	Horizontal bool     `json:"horizontal,omitempty"`
	Background string   `json:"background,omitempty"`
	Include    []string `json:"include,omitempty"`
	Exclude    []string `json:"exclude,omitempty"`

	// Render options
	Format string `json:"format,omitempty"`

	// Runtime options (not serialized)
	Loader topology.Loader `json:"-"`
	Logger *log.Logger     `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Files are the configuration files that were merged, in order.
	Files []string

	// Graph is the logical topology graph.
	Graph *graph.Graph

	// Styled is the annotated and filtered copy that was rendered.
	Styled *graph.Graph

	// Artifact is the rendered output in Format.
	Artifact []byte
	Format   string

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(formatNames(), ", "))
	}
	return nil
}

func formatNames() []string {
	return []string{FormatDOT, FormatSVG, FormatPNG, FormatJPG, FormatPDF, FormatJSON}
}

// Validate applies defaults and checks the options. It is idempotent.
func (o *Options) Validate() error {
	if o.Format == "" {
		o.Format = DefaultFormat
	}
	o.Format = strings.ToLower(o.Format)
	if o.Background == "" {
		o.Background = style.DefaultBackground
	}
	if o.Document == nil && len(o.Files) == 0 {
		o.Files = []string{compose.DefaultFile}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateFormat(o.Format); err != nil {
		return err
	}
	if err := errs.ValidateBackground(o.Background); err != nil {
		return err
	}
	if err := errs.ValidateServiceNames(o.Include); err != nil {
		return err
	}
	return errs.ValidateServiceNames(o.Exclude)
}

// Flags returns the builder flags selected by the options.
func (o *Options) Flags() topology.Flags {
	var f topology.Flags
	if o.NoVolumes {
		f |= topology.WithoutVolumes
	}
	if o.NoNetworks {
		f |= topology.WithoutNetworks
	}
	if o.NoPorts {
		f |= topology.WithoutPorts
	}
	if o.NoConfigs {
		f |= topology.WithoutConfigs
	}
	if o.NoSecrets {
		f |= topology.WithoutSecrets
	}
	return f
}

// StyleOptions returns the annotator options.
func (o *Options) StyleOptions() style.Options {
	return style.Options{Horizontal: o.Horizontal, Background: o.Background}
}

// ContentType returns the MIME type of the output format.
func (o *Options) ContentType() string {
	return ContentType(o.Format)
}

// ContentType returns the MIME type of format, or
// application/octet-stream for formats without a known type.
func ContentType(format string) string {
	if ct, ok := ContentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
