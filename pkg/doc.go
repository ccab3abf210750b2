// Package pkg provides the core libraries for Patina synthetic photo aging.
//
// # Overview
//
// Patina turns clean photographs into plausibly damaged ones: fractal
// cracks, flat stain blotches, faded contrast and a sepia cast. The output
// is deterministic for a given image, preset and seed, which makes it
// suitable for building paired training data for restoration models. The
// pkg directory is organized into three areas:
//
//  1. Primitives - [random], [field], [crack], [stain], [filter], [composite], [tone]
//  2. Composition - [aging] and [preset]
//  3. Infrastructure - [pipeline], [cache], [dataset], [observability], [errors]
//
// # Architecture
//
// The data flow for one image:
//
//	encoded bytes
//	     ↓
//	[pipeline] decode + cache lookup
//	     ↓
//	[aging] sepia → stain layers → crack layers → contrast
//	     ↓
//	[pipeline] encode + cache store
//	     ↓
//	PNG/JPEG artifact
//
// Each aging step draws a transparent layer ([stain.Generate] or
// [crack.Layer]), runs it through a [filter] chain, and blends it over the
// image with [composite.DrawOn].
//
// # Quick Start
//
//	img, _ := imaging.Open("portrait.jpg")
//	p, _ := preset.Builtin("lfw")
//	opts, _ := p.Options()
//	aged, report, err := aging.Age(ctx, img, opts, random.New(42))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.CrackLength)
//
// The [pipeline.Runner] wraps the same call with decoding, encoding and
// artifact caching, and is shared by the CLI and the HTTP API:
//
//	runner := pipeline.NewRunner(cache.Disabled(""), nil, logger)
//	res, err := runner.Execute(ctx, data, pipeline.Options{Preset: "lfw", Seed: 7})
//
// # Main Packages
//
// [crack] - Branching random walks grown into an occupancy [field], upscaled
// to the target size.
//
// [stain] - Ellipses of one flat color scattered over a transparent layer.
//
// [filter] - Named layer filters (blur, sharpen, smooth, edge enhance)
// parsed from strings such as "blur(1.6)".
//
// [preset] - Named, versionable aging recipes. Built-ins ship with the
// binary; files in TOML or YAML are loaded with [preset.Load].
//
// [dataset] - Batch preprocessing of an image directory into ground-truth
// and aged pairs with a CSV manifest.
//
// [cache] - Artifact caching with file, Redis and null backends.
//
// [random]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/random
// [field]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/field
// [crack]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/crack
// [stain]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/stain
// [filter]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/filter
// [composite]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/composite
// [tone]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/tone
// [aging]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/aging
// [preset]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/preset
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/cache
// [dataset]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/dataset
// [observability]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/patina/pkg/errors
package pkg
