// Package vecstore defines the embedding store abstraction and its two main
// decorators: GuardedStore, which isolates embedding spaces by provenance
// fingerprint, and FederatedStore, which routes searches across multiple
// child stores by topic and merges the shards into one normalized list.
package vecstore
