package addons

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/cdk-addons/internal/flags"
	"github.com/imamik/cdk-addons/internal/manifest"
	"github.com/imamik/cdk-addons/internal/templates"
)

// Desired is the outcome of one build.
type Desired struct {
	// Documents are every rendered document, labelled with the ownership label.
	Documents []manifest.Document
	// Identities is the desired set.
	Identities manifest.IdentitySet
	// DNSManifest is the rendered DNS provider manifest, or "" if none.
	DNSManifest string
	// Categories lists the enabled categories in catalog order.
	Categories []string
	// Rendered reports whether any document was rendered.
	Rendered bool
}

// Builder renders the desired manifest set.
type Builder struct {
	store    flags.Store
	renderer *templates.Renderer
	catalog  []Category
}

// NewBuilder creates a builder over the full Catalog.
func NewBuilder(store flags.Store, renderer *templates.Renderer) *Builder {
	return &Builder{store: store, renderer: renderer, catalog: Catalog()}
}

// WithCatalog replaces the catalog the builder walks.
func (b *Builder) WithCatalog(catalog []Category) *Builder {
	b.catalog = catalog
	return b
}

type plannedCategory struct {
	category *Category
	ctx      templates.Context
}

// Build renders every enabled category against base. The working area is
// expected to be freshly reset.
func (b *Builder) Build(ctx context.Context, base templates.Context) (*Desired, error) {
	logger := log.FromContext(ctx)

	planned, err := b.plan(base)
	if err != nil {
		return nil, err
	}

	desired := &Desired{Identities: manifest.NewIdentitySet()}
	for _, p := range planned {
		desired.Categories = append(desired.Categories, p.category.Name)
		for i := range p.category.Templates {
			t := &p.category.Templates[i]
			tctx := t.contextFor(p.ctx)
			if t.When != nil && !t.When(tctx) {
				continue
			}

			docs, path, err := b.renderer.Render(ctx, t.Ref, tctx)
			if err != nil {
				return nil, err
			}
			if len(docs) == 0 {
				continue
			}
			if p.category.DNS {
				desired.DNSManifest = path
			}
			desired.Documents = append(desired.Documents, docs...)
		}
		logger.V(1).Info("rendered category", "category", p.category.Name)
	}

	desired.Identities = manifest.Identities(desired.Documents)
	desired.Rendered = len(desired.Documents) > 0
	return desired, nil
}

// plan evaluates enablement and resolves the context of every enabled
// category before anything is rendered.
func (b *Builder) plan(base templates.Context) ([]plannedCategory, error) {
	var planned []plannedCategory
	dns := ""
	for i := range b.catalog {
		c := &b.catalog[i]
		on, err := c.Enabled(b.store)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate category %s: %w", c.Name, err)
		}
		if !on {
			continue
		}
		if c.DNS {
			if dns != "" {
				return nil, fmt.Errorf("categories %s and %s are both DNS providers", dns, c.Name)
			}
			dns = c.Name
		}

		cctx, err := c.resolve(b.store, base)
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedCategory{category: c, ctx: cctx})
	}
	return planned, nil
}
