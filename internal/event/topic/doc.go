// Package topic defines the type tag that identifies an event category.
//
// Tags use dot-notation to group related categories:
//
//	session.started
//	cache.entry.evicted
//	foo
//
// Routing on the bus is an exact string comparison of tags. There is no
// wildcard, prefix or hierarchical matching; the segments only exist to keep
// names readable and are validated so that malformed tags are rejected when
// an event type is defined rather than silently routed nowhere.
package topic
