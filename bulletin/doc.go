// Package bulletin contains concrete BulletinStore implementations. The store
// interface and SearchResult type reside in the core package; depend on
// core.BulletinStore and select an implementation at wiring time.
package bulletin
