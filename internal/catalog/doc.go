// Package catalog scans the working directory and classifies media artifacts.
//
// Every List call rescans; no registry survives between requests. Files are
// grouped into priority tiers (outputs first, raw segments last) and ordered
// within a tier by numeric-aware collation, so segment2 sorts before
// segment10. Hidden files are never listed, which keeps playlists, locks,
// and temp directories out of every listing.
//
// The catalog also owns the two mutations the pipeline exposes over
// artifacts it does not produce itself: thumbnail deletion and publishing
// (renaming the canonical outputs to a sanitized title).
package catalog
