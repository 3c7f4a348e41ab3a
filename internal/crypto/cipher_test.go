package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := NewCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	plain := "SG.super-secret-api-key"
	sealed, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if sealed == plain {
		t.Fatal("ciphertext should differ from plaintext")
	}
	if strings.Contains(sealed, "secret") {
		t.Fatal("ciphertext should not leak plaintext")
	}

	got, err := c.Decrypt(sealed)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != plain {
		t.Fatalf("Decrypt() = %q, want %q", got, plain)
	}
}

func TestCipherEmptyValuesPassThrough(t *testing.T) {
	t.Parallel()

	c, err := NewCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	sealed, err := c.Encrypt("")
	if err != nil || sealed != "" {
		t.Fatalf("Encrypt(\"\") = %q, %v, want empty and nil", sealed, err)
	}
	plain, err := c.Decrypt("")
	if err != nil || plain != "" {
		t.Fatalf("Decrypt(\"\") = %q, %v, want empty and nil", plain, err)
	}
}

func TestCipherNonceUniqueness(t *testing.T) {
	t.Parallel()

	c, err := NewCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	first, err := c.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	second, err := c.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if first == second {
		t.Fatal("two encryptions of the same value must differ")
	}
}

func TestNewCipherRejectsBadKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewCipher("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64 key")
	}

	short := base64.StdEncoding.EncodeToString([]byte("too-short"))
	if _, err := NewCipher(short); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestCipherDecryptRejectsGarbage(t *testing.T) {
	t.Parallel()

	c, err := NewCipher(testKey(t))
	if err != nil {
		t.Fatalf("NewCipher() error = %v", err)
	}

	if _, err := c.Decrypt("%%%not-base64%%%"); err == nil {
		t.Fatal("expected error for invalid ciphertext encoding")
	}
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString([]byte("xx"))); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}

	sealed, err := c.Encrypt("token")
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	data, _ := base64.StdEncoding.DecodeString(sealed)
	data[len(data)-1] ^= 0xff
	if _, err := c.Decrypt(base64.StdEncoding.EncodeToString(data)); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}
