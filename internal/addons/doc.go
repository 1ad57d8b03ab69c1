// Package addons decides which add-ons the current flags enable and renders
// their manifests.
//
// Each add-on category is a [Category] descriptor: an enablement condition,
// the flags it requires, its templates and an optional context extension.
// [Builder.Build] walks the [Catalog] uniformly, so adding a category is a
// change to the catalog, not to the build loop.
//
// Build is fail-fast: every enabled category resolves its required flags
// before the first template is rendered, and any missing value aborts the
// build with a MissingConfig error.
package addons
