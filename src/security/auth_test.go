package security

import (
	"os"
	"testing"
	"time"

	"github.com/username/freightpay/backend/src/config"
)

func TestMain(m *testing.M) {
	config.Cfg = &config.AppConfig{AccessTokenExpiry: time.Hour}
	os.Exit(m.Run())
}

func TestTokenRoundTrip(t *testing.T) {
	auth := NewAuthService("test-secret-key-at-least-32-bytes-long!!")

	token, err := auth.GenerateToken("cmp-1", "client")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	subject, role, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if subject != "cmp-1" || role != "client" {
		t.Errorf("got subject=%q role=%q, want cmp-1/client", subject, role)
	}

	t.Run("wrong secret refused", func(t *testing.T) {
		other := NewAuthService("a-completely-different-32-byte-secret!!!")
		if _, _, err := other.ValidateToken(token); err == nil {
			t.Error("token validated with the wrong secret")
		}
	})

	t.Run("garbage refused", func(t *testing.T) {
		if _, _, err := auth.ValidateToken("not.a.token"); err == nil {
			t.Error("garbage token validated")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	auth := NewAuthService("test-secret-key-at-least-32-bytes-long!!")

	hash, err := auth.HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("password stored in the clear")
	}
	if err := auth.CompareHashAndPassword(hash, "correct horse battery staple"); err != nil {
		t.Errorf("matching password rejected: %v", err)
	}
	if err := auth.CompareHashAndPassword(hash, "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
}
