// Package startup handles environment configuration, directory validation,
// build metadata, and the structured startup log banner.
package startup
