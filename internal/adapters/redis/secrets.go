package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SecretKeyPrefix is the prefix for secret keys in Redis
const SecretKeyPrefix = "secret:"

// SecretStore retrieves named credentials. Secrets are provisioned
// out-of-band (deploy tooling writes them under secret:<name>).
type SecretStore struct {
	client *redis.Client
}

// NewSecretStore creates a secret store on top of a Redis client
func NewSecretStore(client *redis.Client) *SecretStore {
	return &SecretStore{client: client}
}

// Get returns the secret stored under the given name
func (s *SecretStore) Get(ctx context.Context, name string) (string, error) {
	val, err := s.client.Get(ctx, SecretKeyPrefix+name).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("secret %q not found", name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, err)
	}
	return val, nil
}
