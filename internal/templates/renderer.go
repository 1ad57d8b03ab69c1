// Package templates renders add-on manifest templates into labelled manifest
// documents.
//
// Templates use Go text/template syntax with the sprig function library.
// Execution is strict: a reference to a key missing from the context fails
// the render instead of producing an incomplete manifest.
package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/runerr"
)

// Ref names one template of the library.
type Ref struct {
	// Name is the template file name in the library.
	Name string
	// Output is the rendered file name in the working area; defaults to Name.
	// Lets one template be rendered more than once per run.
	Output string
	// Optional templates that are absent from the library are skipped.
	Optional bool
}

// OutputName returns the file name the rendered template is written to.
func (r Ref) OutputName() string {
	if r.Output != "" {
		return r.Output
	}
	return r.Name
}

// Renderer renders templates from a library directory into a working area.
// The working area is owned by a single run.
type Renderer struct {
	LibraryDir string
	WorkDir    string
}

// NewRenderer creates a renderer.
func NewRenderer(libraryDir, workDir string) *Renderer {
	return &Renderer{LibraryDir: libraryDir, WorkDir: workDir}
}

// Reset deletes and recreates the working area so nothing rendered by an
// earlier run can be picked up.
func (r *Renderer) Reset() error {
	if r.WorkDir == "" || r.WorkDir == "/" {
		return fmt.Errorf("refusing to reset working area %q", r.WorkDir)
	}
	if err := os.RemoveAll(r.WorkDir); err != nil {
		return fmt.Errorf("failed to remove working area %s: %w", r.WorkDir, err)
	}
	if err := os.MkdirAll(r.WorkDir, 0o750); err != nil {
		return fmt.Errorf("failed to create working area %s: %w", r.WorkDir, err)
	}
	return nil
}

// Render executes ref against data, labels every resulting document with the
// ownership label and writes them to the working area. It returns the
// documents and the written path. A missing optional template yields no
// documents, an empty path and no error.
func (r *Renderer) Render(ctx context.Context, ref Ref, data Context) ([]manifest.Document, string, error) {
	logger := log.FromContext(ctx).WithValues("template", ref.Name)

	source, err := os.ReadFile(filepath.Join(r.LibraryDir, ref.Name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && ref.Optional {
			logger.V(1).Info("optional template not present, skipping")
			return nil, "", nil
		}
		return nil, "", runerr.Render(ref.Name, fmt.Errorf("failed to read template: %w", err))
	}

	rendered, err := execute(ref.Name, source, data)
	if err != nil {
		return nil, "", runerr.Render(ref.Name, err)
	}

	docs, err := manifest.Decode(rendered)
	if err != nil {
		return nil, "", runerr.Render(ref.Name, err)
	}
	for i := range docs {
		if err := docs[i].EnsureOwnership(); err != nil {
			return nil, "", runerr.Render(ref.Name, err)
		}
	}

	out, err := manifest.Encode(docs)
	if err != nil {
		return nil, "", runerr.Render(ref.Name, err)
	}

	path := filepath.Join(r.WorkDir, ref.OutputName())
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, "", runerr.Render(ref.Name, fmt.Errorf("failed to write rendered manifest %s: %w", path, err))
	}

	logger.Info("rendered template", "output", path, "documents", len(docs))
	return docs, path, nil
}

// execute runs a template with strict missing-key handling.
func execute(name string, source []byte, data Context) ([]byte, error) {
	tmpl, err := template.New(name).
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(string(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}
