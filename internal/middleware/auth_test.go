package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := SignSessionToken(testSecret, SessionClaims{
		Sub:   "user-42",
		Email: "user@example.com",
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifySessionToken(testSecret, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Sub != "user-42" {
		t.Fatalf("sub = %q", claims.Sub)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	expired, _ := SignSessionToken(testSecret, SessionClaims{
		Sub: "user-42",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	wrongSecret, _ := SignSessionToken("other-secret", SessionClaims{
		Sub: "user-42",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	noSubject, _ := SignSessionToken(testSecret, SessionClaims{
		Exp: time.Now().Add(time.Hour).Unix(),
	})

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": wrongSecret,
		"no subject":   noSubject,
		"malformed":    "not.a.token.at.all",
	} {
		if _, err := VerifySessionToken(testSecret, token); err == nil {
			t.Fatalf("%s: expected verification failure", name)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	var seenUser string
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d", rec.Code)
	}

	token, _ := SignSessionToken(testSecret, SessionClaims{
		Sub: "user-7",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d", rec.Code)
	}
	if seenUser != "user-7" {
		t.Fatalf("user id = %q", seenUser)
	}
}
