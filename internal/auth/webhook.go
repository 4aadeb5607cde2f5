package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinWebhookKeyLength is the shortest accepted webhook key.
const MinWebhookKeyLength = 24

// HashWebhookKey returns the bcrypt hash to configure for key.
func HashWebhookKey(key string) (string, error) {
	if len(key) < MinWebhookKeyLength {
		return "", fmt.Errorf("webhook key must be at least %d characters", MinWebhookKeyLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing webhook key: %w", err)
	}
	return string(hash), nil
}

// VerifyWebhookKey checks key against the configured hash. An empty hash
// rejects every key.
func VerifyWebhookKey(hash, key string) error {
	if hash == "" {
		return errors.New("webhooks are disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return fmt.Errorf("invalid webhook key: %w", err)
	}
	return nil
}
