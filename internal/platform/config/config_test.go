package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "mekong-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "mekong-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Events.ProjectID != "mekong-dev" {
		t.Errorf("expected events project to default to firebase project, got %s", cfg.Events.ProjectID)
	}
	if cfg.Events.OrderTopic != defaultEventOrderTopic {
		t.Errorf("unexpected default order topic: %s", cfg.Events.OrderTopic)
	}
	if cfg.VNPay.PayURL != defaultVNPayURL {
		t.Errorf("unexpected default vnpay url: %s", cfg.VNPay.PayURL)
	}
	if cfg.Orders.PageSize != defaultOrderPageSize {
		t.Errorf("unexpected default page size: %d", cfg.Orders.PageSize)
	}
	if cfg.Orders.LowStockThreshold != defaultLowStockThreshold {
		t.Errorf("unexpected default low stock threshold: %d", cfg.Orders.LowStockThreshold)
	}
	if cfg.Security.OIDC.JWKSURL != defaultOIDCJWKSURL {
		t.Errorf("expected default jwks url %s, got %s", defaultOIDCJWKSURL, cfg.Security.OIDC.JWKSURL)
	}
	if len(cfg.Security.OIDC.Issuers) != 1 {
		t.Errorf("expected default issuers, got %v", cfg.Security.OIDC.Issuers)
	}
	if cfg.Idempotency.Header != defaultIdempotencyHeader {
		t.Errorf("expected default idempotency header, got %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != defaultIdempotencyTTL {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"API_SERVER_PORT":                 "9090",
		"API_SERVER_READ_TIMEOUT":         "20s",
		"API_FIREBASE_PROJECT_ID":         "mekong-prod",
		"API_FIRESTORE_PROJECT_ID":        "mekong-fire",
		"API_EVENTS_ORDER_TOPIC":          "orders-prod",
		"API_VNPAY_TMN_CODE":              "MEKONG01",
		"API_VNPAY_HASH_SECRET":           "secret://vnpay/hash",
		"API_VNPAY_RETURN_URL":            "https://mekongmart.vn/payment/return",
		"API_ORDERS_PAGE_SIZE":            "50",
		"API_ORDERS_LOW_STOCK_THRESHOLD":  "10",
		"API_SECURITY_OIDC_AUDIENCE":      "https://api.mekongmart.vn",
		"API_SECURITY_OIDC_ISSUERS":       "https://accounts.google.com, https://cloud.google.com/iap",
		"API_IDEMPOTENCY_HEADER":          "X-Idem-Key",
		"API_IDEMPOTENCY_TTL":             "48h",
	}

	secrets := map[string]string{
		"secret://vnpay/hash": "vnpay-hash-secret",
	}
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "mekong-fire" {
		t.Errorf("unexpected firestore project: %s", cfg.Firestore.ProjectID)
	}
	if cfg.Events.OrderTopic != "orders-prod" {
		t.Errorf("unexpected order topic: %s", cfg.Events.OrderTopic)
	}
	if cfg.VNPay.HashSecret != "vnpay-hash-secret" {
		t.Errorf("expected resolved vnpay secret, got %q", cfg.VNPay.HashSecret)
	}
	if cfg.Orders.PageSize != 50 {
		t.Errorf("unexpected page size: %d", cfg.Orders.PageSize)
	}
	if cfg.Orders.LowStockThreshold != 10 {
		t.Errorf("unexpected low stock threshold: %d", cfg.Orders.LowStockThreshold)
	}
	if len(cfg.Security.OIDC.Issuers) != 2 {
		t.Errorf("unexpected issuers: %v", cfg.Security.OIDC.Issuers)
	}
	if cfg.Idempotency.Header != "X-Idem-Key" {
		t.Errorf("unexpected idempotency header: %s", cfg.Idempotency.Header)
	}
	if cfg.Idempotency.TTL != 48*time.Hour {
		t.Errorf("unexpected idempotency ttl: %s", cfg.Idempotency.TTL)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	found := false
	for _, field := range vErr.Fields() {
		if field == "Firebase.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Firebase.ProjectID in %v", vErr.Fields())
	}
}

func TestLoadSecretResolverMissing(t *testing.T) {
	env := map[string]string{
		"API_FIREBASE_PROJECT_ID": "mekong-dev",
		"API_VNPAY_HASH_SECRET":   "sm://vnpay/hash",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret error")
	}
	var sErr *SecretError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if sErr.Ref != "secret://vnpay/hash" {
		t.Errorf("expected normalized ref, got %s", sErr.Ref)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "API_FIREBASE_PROJECT_ID=mekong-local\nexport API_SERVER_PORT=7070\n# comment\nAPI_VNPAY_TMN_CODE=\"LOCAL01\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(path))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "mekong-local" {
		t.Errorf("unexpected firebase project: %s", cfg.Firebase.ProjectID)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.VNPay.TmnCode != "LOCAL01" {
		t.Errorf("expected quotes stripped, got %q", cfg.VNPay.TmnCode)
	}
}
