package http

import (
	"errors"
	"net/http"
	"testing"

	ucUser "finapp-backend/internal/usecase/user"
)

func TestProfile_PutAndGet(t *testing.T) {
	s := newStack(t)

	wantStatus(t, s.do(http.MethodGet, "/v1/me", tokClient, nil), http.StatusNotFound)

	rec := s.do(http.MethodPut, "/v1/me", tokClient, map[string]any{
		"name":         "Asha",
		"phone_number": "+919876543210",
		"push_token":   "ExponentPushToken[abc]",
	})
	wantStatus(t, rec, http.StatusOK)
	p := decode[ucUser.ProfileDTO](t, rec)
	if p.UserID != "client-1" || p.Role != "CLIENT" || !p.HasPushToken {
		t.Fatalf("unexpected profile: %+v", p)
	}

	rec = s.do(http.MethodGet, "/v1/me", tokClient, nil)
	wantStatus(t, rec, http.StatusOK)
	if p := decode[ucUser.ProfileDTO](t, rec); p.Name != "Asha" || p.PhoneNumber != "+919876543210" {
		t.Fatalf("unexpected profile: %+v", p)
	}

	// the stored profile fills in the owner name on new loans
	rec = s.do(http.MethodPost, "/v1/loans", tokClient, map[string]any{
		"category": "EDUCATION", "principal": 50000, "duration": 6,
	})
	wantStatus(t, rec, http.StatusCreated)
	if got := decode[struct {
		UserName string `json:"user_name"`
		Phone    string `json:"phone_number"`
	}](t, rec); got.UserName != "Asha" || got.Phone != "+919876543210" {
		t.Fatalf("profile not copied to loan: %+v", got)
	}
}

func TestProfile_Validation(t *testing.T) {
	s := newStack(t)

	rec := s.do(http.MethodPut, "/v1/me", tokClient, map[string]any{"phone_number": "12"})
	wantStatus(t, rec, http.StatusUnprocessableEntity)
	er := decode[ErrorResponse](t, rec)
	if !containsFieldMsg(er.Details, "name", "is required") || !containsFieldMsg(er.Details, "phone_number", "digits") {
		t.Fatalf("unexpected details: %+v", er.Details)
	}
}

func TestLogout(t *testing.T) {
	s := newStack(t)

	rec := s.do(http.MethodPost, "/v1/session/logout", tokClient, nil)
	wantStatus(t, rec, http.StatusNoContent)
	if s.logout.got.TokenID != "t1" {
		t.Fatalf("revoked token = %q, want t1", s.logout.got.TokenID)
	}

	s.logout.err = errors.New("redis down")
	wantStatus(t, s.do(http.MethodPost, "/v1/session/logout", tokClient, nil), http.StatusInternalServerError)

	wantStatus(t, s.do(http.MethodPost, "/v1/session/logout", "", nil), http.StatusUnauthorized)
}
