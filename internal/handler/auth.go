package handler

import (
	"net/http"

	"storefront/internal/adapter"
	"storefront/internal/session"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	session.Status
	Message string `json:"message,omitempty"`
}

// POST /auth/sign-in
func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if _, err := h.sessions.SignIn(r.Context(), req.Email, req.Password); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{
		Status:  h.sessions.Status(r.Context()),
		Message: session.MsgSignedIn,
	})
}

// handleSignUp creates an account. When the API does not sign the new
// account in, the response reports an anonymous session.
// POST /auth/sign-up
func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req adapter.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if _, err := h.sessions.SignUp(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sessionResponse{
		Status:  h.sessions.Status(r.Context()),
		Message: session.MsgSignedUp,
	})
}

// POST /auth/sign-out
func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{Message: session.MsgSignedOut})
}

// handleSession reports the stored session. With ?verify=true the token is
// checked against the shop API first.
// GET /auth/session
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("verify") != "true" {
		h.writeJSON(w, http.StatusOK, sessionResponse{Status: h.sessions.Status(r.Context())})
		return
	}

	st, err := h.sessions.Verify(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sessionResponse{Status: st})
}
