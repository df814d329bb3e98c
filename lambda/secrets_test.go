package lambda

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/byteness/travelgate/testutil"
)

func TestCachedSecretsLoader_CachesValue(t *testing.T) {
	client := testutil.NewMockSecretsManagerClient(map[string]string{"webhook": "s3cret"})
	loader := NewCachedSecretsLoaderWithClient(client)

	for i := 0; i < 3; i++ {
		v, err := loader.GetSecret(context.Background(), "webhook")
		if err != nil {
			t.Fatalf("GetSecret() error = %v", err)
		}
		if v != "s3cret" {
			t.Errorf("GetSecret() = %q", v)
		}
	}
	if client.CallCount() != 1 {
		t.Errorf("expected 1 fetch, got %d", client.CallCount())
	}
}

func TestCachedSecretsLoader_RefetchesAfterTTL(t *testing.T) {
	client := testutil.NewMockSecretsManagerClient(map[string]string{"key": "v1"})
	loader := NewCachedSecretsLoaderWithClient(client, WithTTL(time.Minute))

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	loader.now = func() time.Time { return now }

	if _, err := loader.GetSecret(context.Background(), "key"); err != nil {
		t.Fatal(err)
	}

	client.Secrets["key"] = "v2"
	now = now.Add(30 * time.Second)
	if v, _ := loader.GetSecret(context.Background(), "key"); v != "v1" {
		t.Errorf("within TTL got %q, want cached v1", v)
	}

	now = now.Add(time.Minute)
	if v, _ := loader.GetSecret(context.Background(), "key"); v != "v2" {
		t.Errorf("after TTL got %q, want v2", v)
	}
	if client.CallCount() != 2 {
		t.Errorf("expected 2 fetches, got %d", client.CallCount())
	}
}

func TestCachedSecretsLoader_Errors(t *testing.T) {
	t.Run("empty id", func(t *testing.T) {
		client := testutil.NewMockSecretsManagerClient(nil)
		_, err := NewCachedSecretsLoaderWithClient(client).GetSecret(context.Background(), "")
		if err == nil {
			t.Fatal("expected error")
		}
		if client.CallCount() != 0 {
			t.Error("empty ID should not reach Secrets Manager")
		}
	})

	t.Run("fetch failure is wrapped", func(t *testing.T) {
		boom := errors.New("AccessDeniedException")
		client := testutil.NewMockSecretsManagerClient(nil)
		client.GetSecretValueFunc = func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return nil, boom
		}
		_, err := NewCachedSecretsLoaderWithClient(client).GetSecret(context.Background(), "audit")
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want wrapped %v", err, boom)
		}
		if !strings.Contains(err.Error(), `"audit"`) {
			t.Errorf("error should name the secret: %v", err)
		}
	})

	t.Run("binary secret", func(t *testing.T) {
		client := testutil.NewMockSecretsManagerClient(nil)
		client.GetSecretValueFunc = func(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			return &secretsmanager.GetSecretValueOutput{Name: aws.String("bin"), SecretBinary: []byte{1, 2}}, nil
		}
		_, err := NewCachedSecretsLoaderWithClient(client).GetSecret(context.Background(), "bin")
		if err == nil || !strings.Contains(err.Error(), "binary") {
			t.Errorf("error = %v, want binary secret error", err)
		}
	})

	t.Run("failures are not cached", func(t *testing.T) {
		client := testutil.NewMockSecretsManagerClient(nil)
		loader := NewCachedSecretsLoaderWithClient(client)
		if _, err := loader.GetSecret(context.Background(), "late"); err == nil {
			t.Fatal("expected error for missing secret")
		}
		client.Secrets["late"] = "now here"
		if v, err := loader.GetSecret(context.Background(), "late"); err != nil || v != "now here" {
			t.Errorf("GetSecret() = %q, %v", v, err)
		}
	})
}
