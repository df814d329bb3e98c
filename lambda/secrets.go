package lambda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsLoader loads secrets such as the audit signing key and the webhook
// HMAC secret.
type SecretsLoader interface {
	// GetSecret returns the string value of the secret with the given ID or ARN.
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// DefaultSecretsCacheTTL is how long a fetched secret is reused. Secrets
// are read at cold start, so this mostly bounds how long a rotated key
// takes to reach a warm instance.
const DefaultSecretsCacheTTL = 1 * time.Hour

// SecretsManagerAPI is the Secrets Manager operation used by CachedSecretsLoader.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// CachedSecretsLoader implements SecretsLoader over Secrets Manager with an
// in-process TTL cache.
type CachedSecretsLoader struct {
	client SecretsManagerAPI
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// SecretsOption customizes a CachedSecretsLoader.
type SecretsOption func(*CachedSecretsLoader)

// WithTTL sets the cache TTL.
func WithTTL(ttl time.Duration) SecretsOption {
	return func(l *CachedSecretsLoader) {
		l.ttl = ttl
	}
}

// NewCachedSecretsLoader creates a loader using the provided AWS configuration.
func NewCachedSecretsLoader(awsCfg aws.Config, opts ...SecretsOption) *CachedSecretsLoader {
	return NewCachedSecretsLoaderWithClient(secretsmanager.NewFromConfig(awsCfg), opts...)
}

// NewCachedSecretsLoaderWithClient creates a loader with a custom client.
func NewCachedSecretsLoaderWithClient(client SecretsManagerAPI, opts ...SecretsOption) *CachedSecretsLoader {
	l := &CachedSecretsLoader{
		client: client,
		ttl:    DefaultSecretsCacheTTL,
		now:    time.Now,
		cache:  make(map[string]cachedSecret),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GetSecret returns the cached value when fresh, otherwise fetches it.
// Binary secrets are not supported.
func (l *CachedSecretsLoader) GetSecret(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", fmt.Errorf("secret ID is required")
	}

	l.mu.RLock()
	cached, ok := l.cache[secretID]
	l.mu.RUnlock()
	if ok && l.now().Before(cached.expiresAt) {
		return cached.value, nil
	}

	output, err := l.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", secretID, err)
	}
	if output.SecretString == nil {
		return "", fmt.Errorf("secret %q is not a string type (binary secrets not supported)", secretID)
	}

	value := *output.SecretString
	l.mu.Lock()
	l.cache[secretID] = cachedSecret{value: value, expiresAt: l.now().Add(l.ttl)}
	l.mu.Unlock()

	return value, nil
}
