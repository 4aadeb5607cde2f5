package auth

import "testing"

func TestWebhookKey(t *testing.T) {
	key := "0123456789abcdef0123456789abcdef"

	hash, err := HashWebhookKey(key)
	if err != nil {
		t.Fatalf("HashWebhookKey: %v", err)
	}
	if err := VerifyWebhookKey(hash, key); err != nil {
		t.Errorf("VerifyWebhookKey: %v", err)
	}
	if err := VerifyWebhookKey(hash, key+"x"); err == nil {
		t.Error("expected wrong key to fail")
	}
	if err := VerifyWebhookKey("", key); err == nil {
		t.Error("expected empty hash to reject")
	}
}

func TestHashWebhookKeyTooShort(t *testing.T) {
	if _, err := HashWebhookKey("short"); err == nil {
		t.Error("expected error for short key")
	}
}
