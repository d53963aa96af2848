// Package mock provides test doubles for the ai package interfaces.
//
// MockEmbedder generates deterministic vectors from a text hash, so tests
// get stable embeddings without any external service. Behavior can be
// overridden per test via the function fields.
package mock
