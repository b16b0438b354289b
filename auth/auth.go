// Package auth resolves the hosting provider credential used for
// non-interactive deploys. The environment variable wins over the OS
// keyring so CI can inject a token without touching local state.
package auth

import (
	"os"

	"github.com/zalando/go-keyring"

	"github.com/shipgate/shipgate/errors"
)

const (
	// EnvToken is the environment variable carrying the provider token.
	EnvToken = "FIREBASE_TOKEN"

	keyringService = "shipgate"
	keyringUser    = "firebase-token"
)

// ResolveToken returns the provider token, or "" when none is
// configured. A missing token is not an error; the provider CLI then
// falls back to its own interactive login session.
func ResolveToken() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	token, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		return ""
	}
	return token
}

// StoreToken saves the provider token in the OS keyring.
func StoreToken(token string) error {
	if token == "" {
		return errors.New(errors.CodeInvalidInput, "token must not be empty")
	}
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to store token in keyring")
	}
	return nil
}

// DeleteToken removes the stored token. Deleting a token that was
// never stored is not an error.
func DeleteToken() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && err != keyring.ErrNotFound {
		return errors.Wrap(err, errors.CodeInternal, "failed to delete token from keyring")
	}
	return nil
}
