// Package cache holds public keys used to verify signed requests.
//
// Verifying a request requires the public key named in its signature header. Fetching that key
// costs a round-trip to the API, so verifiers consult a [PublicKeyCache] first and populate it on a
// miss. A single PublicKeyCache is normally shared by every verifier in a process.
//
// Keys are cached for the lifetime of the PublicKeyCache. If a key is rotated, call
// [PublicKeyCache.Delete] so that the next verification fetches the new key.
package cache
