package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSigner_SignVerify(t *testing.T) {
	s := NewSigner("secret")
	tok, err := s.Sign("sess-1", "0xabc")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "sess-1" || claims.Player != "0xabc" {
		t.Errorf("claims %+v", claims)
	}
}

func TestSigner_RejectsForeignKey(t *testing.T) {
	tok, _ := NewSigner("one").Sign("sess-1", "0xabc")
	if _, err := NewSigner("two").Verify(tok); err != ErrInvalidToken {
		t.Errorf("err %v, want ErrInvalidToken", err)
	}
}

func TestSigner_RejectsExpired(t *testing.T) {
	s := NewSigner("secret")
	issued := time.Now().Add(-48 * time.Hour)
	s.now = func() time.Time { return issued }
	tok, _ := s.Sign("sess-1", "0xabc")
	s.now = time.Now
	if _, err := s.Verify(tok); err != ErrInvalidToken {
		t.Errorf("err %v, want ErrInvalidToken", err)
	}
}

func TestSigner_Cookie(t *testing.T) {
	s := NewSigner("")
	rec := httptest.NewRecorder()
	if err := s.SetCookie(rec, "sess-1", "0xabc"); err != nil {
		t.Fatalf("SetCookie: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	claims, ok := s.FromRequest(req)
	if !ok || claims.Subject != "sess-1" {
		t.Errorf("FromRequest = %+v, %t", claims, ok)
	}
	if _, ok := s.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Error("request without cookie has no session")
	}
}
