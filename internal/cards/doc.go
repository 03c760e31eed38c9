// Package cards defines the study-set data model: sets, two-sided cards,
// and the closed family of content block variants, together with their JSON
// representations used by the on-disk vault layout.
package cards
