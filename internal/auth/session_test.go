package auth

import (
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestSignAndParseSession(t *testing.T) {
	token, err := SignSession(testSecret, "a@b.com", RoleTeacher, time.Hour)
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	claims, err := ParseSession(testSecret, token)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if claims.Email != "a@b.com" || claims.Role != RoleTeacher {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseSession_WrongSecret(t *testing.T) {
	token, _ := SignSession(testSecret, "a@b.com", RoleStudent, time.Hour)
	if _, err := ParseSession([]byte("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"), token); err == nil {
		t.Fatal("wrong secret should fail")
	}
}

func TestParseSession_Expired(t *testing.T) {
	token, _ := SignSession(testSecret, "a@b.com", RoleStudent, -time.Minute)
	if _, err := ParseSession(testSecret, token); err == nil {
		t.Fatal("expired token should fail")
	}
}

func TestParseSession_Garbage(t *testing.T) {
	if _, err := ParseSession(testSecret, "not.a.jwt"); err == nil {
		t.Fatal("garbage token should fail")
	}
}

func TestParseSession_MissingClaims(t *testing.T) {
	token, _ := SignSession(testSecret, "", RoleStudent, time.Hour)
	if _, err := ParseSession(testSecret, token); err == nil {
		t.Fatal("empty email should fail")
	}

	token, _ = SignSession(testSecret, "a@b.com", "superuser", time.Hour)
	if _, err := ParseSession(testSecret, token); err == nil {
		t.Fatal("unknown role should fail")
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleStudent, RoleTeacher, RoleAdmin} {
		if !ValidRole(role) {
			t.Fatalf("%q should be valid", role)
		}
	}
	if ValidRole("principal") || ValidRole("") {
		t.Fatal("unknown roles should be invalid")
	}
}
