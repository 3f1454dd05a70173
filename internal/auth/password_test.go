package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Errorf("unexpected hash prefix: %s", hash)
	}

	other, _ := HashPassword("changeme")
	if hash == other {
		t.Error("hashes of the same password must use different salts")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("changeme")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"changeme", true},
		{"wrongpassword", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := CheckPassword(tt.password, hash)
		if err != nil {
			t.Fatalf("CheckPassword(%q) error: %v", tt.password, err)
		}
		if got != tt.want {
			t.Errorf("CheckPassword(%q) = %v; want %v", tt.password, got, tt.want)
		}
	}
}

func TestCheckPassword_OtherParams(t *testing.T) {
	hash, err := hashWith("changeme", Params{Time: 1, Memory: 8 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16})
	if err != nil {
		t.Fatalf("hashWith error: %v", err)
	}

	ok, err := CheckPassword("changeme", hash)
	if err != nil || !ok {
		t.Fatalf("CheckPassword = %v, %v", ok, err)
	}
	if !NeedsRehash(hash) {
		t.Error("hash with non-default parameters should need a rehash")
	}
}

func TestCheckPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$***$a2V5",
	}
	for _, encoded := range tests {
		if _, err := CheckPassword("x", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Errorf("CheckPassword(%q) err = %v; want ErrMalformedHash", encoded, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	hash, _ := HashPassword("changeme")
	if NeedsRehash(hash) {
		t.Error("fresh hash should not need a rehash")
	}
	if !NeedsRehash("garbage") {
		t.Error("unparseable hash should need a rehash")
	}
}

func TestCheckMissingAccount(t *testing.T) {
	if CheckMissingAccount("anything") {
		t.Error("CheckMissingAccount must always fail")
	}
}
