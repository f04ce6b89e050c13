// Package metrics defines the Prometheus collectors for the media browser.
// All collectors are registered at package load via promauto and exposed on
// the dedicated metrics listener.
package metrics
