// Package events provides the in-process broadcast bus for thumbnail
// completion notifications. Publishers never block on subscribers; each
// subscriber has a bounded buffer and drops events when it falls behind.
package events
