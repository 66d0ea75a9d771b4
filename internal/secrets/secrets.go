// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

// Package secrets resolves provider API keys. Config values may be plain
// strings or keyring://service/key URIs backed by the OS keyring.
package secrets

// Store provides secure secret storage operations. Implementations may use
// OS keyrings, encrypted files, or other backends.
type Store interface {
	// Store saves a secret value under the given service and key.
	Store(service, key, value string) error

	// Retrieve fetches the secret value for the given service and key.
	// Returns CodeSecretNotFound (via resolvderr.HasCode) if the key does
	// not exist.
	Retrieve(service, key string) (string, error)

	// Delete removes the secret for the given service and key.
	Delete(service, key string) error
}
