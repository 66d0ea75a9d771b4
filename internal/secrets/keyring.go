// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Resolvd Contributors

package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"

	resolvderr "github.com/resolvd-dev/resolvd/pkg/errors"
)

// KeyringStore implements Store using the OS keyring via zalando/go-keyring:
// Keychain on macOS, secret-service (D-Bus) on Linux, Credential Manager on
// Windows.
type KeyringStore struct{}

// NewKeyringStore returns a KeyringStore.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return resolvderr.Wrapf(err, resolvderr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}
	return nil
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := validateRef(service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", resolvderr.Errorf(resolvderr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return "", resolvderr.Wrapf(err, resolvderr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := validateRef(service, key); err != nil {
		return err
	}
	if err := keyring.Delete(service, key); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return resolvderr.Errorf(resolvderr.CodeSecretNotFound, "secret %s/%s not found", service, key)
		}
		return resolvderr.Wrapf(err, resolvderr.CodeSecretStoreFailure, "deleting secret %s/%s", service, key)
	}
	return nil
}

func validateRef(service, key string) error {
	if service == "" {
		return resolvderr.New(resolvderr.CodeSecretInvalidInput, "secret ref: service must not be empty")
	}
	if key == "" {
		return resolvderr.New(resolvderr.CodeSecretInvalidInput, "secret ref: key must not be empty")
	}
	return nil
}
