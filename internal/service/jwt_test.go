package service

import (
	"os"
	"testing"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateSessionToken("ada")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	name, err := ParseSessionToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if name != "ada" {
		t.Fatalf("player name = %q; want %q", name, "ada")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	if _, err := ParseSessionToken("not-a-token"); err == nil {
		t.Fatal("garbage token parsed")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "secret-a")
	InitJWT()
	token, err := GenerateSessionToken("ada")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	os.Setenv("JWT_SECRET", "secret-b")
	InitJWT()
	if _, err := ParseSessionToken(token); err == nil {
		t.Fatal("token signed with a different secret parsed")
	}
}
