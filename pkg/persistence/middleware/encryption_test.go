package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/nexusmind/pkg/adapters/memory"
	"github.com/aretw0/nexusmind/pkg/domain"
	"github.com/aretw0/nexusmind/pkg/persistence/middleware"
	"github.com/aretw0/nexusmind/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	original := tests.SampleSession("test-session")
	original.Context.InitialContext = map[string]any{"secret": "my-secret-sauce"}

	if err := secureStore.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Query != "" || stored.FinalAnswer != "" || stored.Graph.NodeCount() != 0 {
		t.Fatal("Expected query, answer and graph to be hidden in the envelope")
	}
	if _, ok := stored.Context.InitialContext["secret"]; ok {
		t.Fatal("Expected secret to be hidden")
	}
	if _, ok := stored.Context.InitialContext[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected envelope field in initial context")
	}
	if stored.Status != domain.StatusCompleted {
		t.Errorf("Expected status to stay visible, got %s", stored.Status)
	}

	loaded, err := secureStore.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Context.InitialContext["secret"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", loaded.Context.InitialContext["secret"])
	}
	if loaded.Query != original.Query || loaded.Graph.NodeCount() != 2 {
		t.Error("Decrypted session does not match the original")
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	tests.RunSessionStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	original := tests.SampleSession("rotation-session")
	original.FinalAnswer = "encrypted-with-old-key"

	if err := secureStoreOld.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rotation-session")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.FinalAnswer != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded.FinalAnswer = "encrypted-with-new-key"
	if err := secureStoreNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, "rotation-session"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainSession(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	_ = underlyingStore.Save(ctx, tests.SampleSession("plain"))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	if err == nil || !strings.Contains(err.Error(), "envelope") {
		t.Errorf("Expected envelope error, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
