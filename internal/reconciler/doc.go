// Package reconciler keeps database metadata eventually consistent with the
// filesystem. Listings are served from disk and decorated from the
// database; observed state flows back through atomic path-keyed upserts.
package reconciler
