// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DriftFile Contributors

package web

import (
	"encoding/json"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/driftfile/driftfile/internal/auth"
	"github.com/driftfile/driftfile/pkg/errutil"
)

// Wire types for the auth API.
type (
	signUpRequest struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	}

	signInRequest struct {
		Email string `json:"email"`
	}

	pendingResponse struct {
		AccountID string `json:"accountId"`
	}

	verifyRequest struct {
		AccountID string `json:"accountId"`
		Code      string `json:"code"`
	}

	verifyResponse struct {
		AccountID      string `json:"accountId"`
		Role           string `json:"role"`
		RedirectTarget string `json:"redirectTarget"`
	}

	resendRequest struct {
		AccountID string `json:"accountId"`
	}

	accountResponse struct {
		AccountID string `json:"accountId"`
		Email     string `json:"email"`
		FullName  string `json:"fullName"`
		Role      string `json:"role"`
		AvatarURL string `json:"avatarUrl"`
	}

	roleResponse struct {
		Student bool `json:"student"`
	}

	errorResponse struct {
		Error string `json:"error"`
		Code  string `json:"code,omitempty"`
	}
)

// statusForCode maps the error taxonomy onto HTTP statuses. Unknown codes
// fall through to 500.
func statusForCode(code string) int {
	switch code {
	case "AUTH_DUPLICATE_ACCOUNT", "AUTH_NO_PENDING_CODE":
		return http.StatusConflict
	case "AUTH_UNKNOWN_ACCOUNT":
		return http.StatusNotFound
	case "AUTH_CODE_INVALID":
		return http.StatusUnauthorized
	case "AUTH_RESEND_THROTTLED":
		return http.StatusTooManyRequests
	case "AUTH_DELIVERY_FAILED":
		return http.StatusBadGateway
	case "AUTH_INVALID_EMAIL", "AUTH_INVALID_NAME", "AUTH_INVALID_ROLE", "AUTH_INVALID_ACCOUNT":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !s.decode(w, r, &req) {
		return
	}

	role, err := auth.ParseRole(req.Role)
	if err != nil {
		s.writeError(w, "sign_up", err)
		return
	}

	pending, err := s.flow.SignUp(r.Context(), req.Email, req.FullName, role)
	if err != nil {
		s.writeError(w, "sign_up", err)
		return
	}

	s.countFlow("sign_up", "ok")
	s.countDelivery("sent")
	s.writeJSON(w, http.StatusCreated, pendingResponse{AccountID: pending.AccountID.String()})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !s.decode(w, r, &req) {
		return
	}

	pending, err := s.flow.SignIn(r.Context(), req.Email)
	if err != nil {
		s.writeError(w, "sign_in", err)
		return
	}

	s.countFlow("sign_in", "ok")
	s.countDelivery("sent")
	s.writeJSON(w, http.StatusOK, pendingResponse{AccountID: pending.AccountID.String()})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	accountID, ok := s.parseAccountID(w, "verify", req.AccountID)
	if !ok {
		return
	}

	client := auth.Client{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	}

	result, err := s.flow.SubmitCode(r.Context(), accountID, req.Code, client)
	if err != nil {
		s.writeError(w, "verify", err)
		return
	}

	s.countFlow("verify", "ok")
	if s.metrics != nil {
		s.metrics.SessionsOpened.Inc()
	}

	// The plaintext token exists only here, between establishment and the
	// Set-Cookie header.
	s.setSessionCookie(w, result.Token)
	s.writeJSON(w, http.StatusOK, verifyResponse{
		AccountID:      result.Account.ID.String(),
		Role:           string(result.Account.Role),
		RedirectTarget: string(result.Redirect),
	})
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if !s.decode(w, r, &req) {
		return
	}

	accountID, ok := s.parseAccountID(w, "resend", req.AccountID)
	if !ok {
		return
	}

	if err := s.flow.ResendCode(r.Context(), accountID); err != nil {
		s.writeError(w, "resend", err)
		return
	}

	s.countFlow("resend", "ok")
	s.countDelivery("sent")
	w.WriteHeader(http.StatusNoContent)
}

// handleSignOut always clears the cookie and reports success. A failed
// revoke leaves a dangling session behind, which is preferable to trapping
// the user on an error page.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.SignOut(r.Context(), sessionToken(r)); err != nil {
		errutil.LogError(s.logger, "sign-out revoke failed", err)
		s.countFlow("sign_out", "revoke_failed")
	} else {
		s.countFlow("sign_out", "ok")
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	if account == nil {
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}

	s.writeJSON(w, http.StatusOK, accountResponse{
		AccountID: account.ID.String(),
		Email:     account.Email,
		FullName:  account.FullName,
		Role:      string(account.Role),
		AvatarURL: account.AvatarURL,
	})
}

// handleRole reports whether the current user is a student. Unauthenticated
// requests get student=false rather than an error.
func (s *Server) handleRole(w http.ResponseWriter, r *http.Request) {
	account := AccountFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, roleResponse{
		Student: account != nil && account.Role == auth.RoleStudent,
	})
}

// decode reads the JSON request body, replying 400 on malformed input.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return false
	}
	return true
}

// parseAccountID parses a wire account ID, replying 400 on malformed input.
func (s *Server) parseAccountID(w http.ResponseWriter, flow, raw string) (ulid.ULID, bool) {
	id, err := ulid.Parse(raw)
	if err != nil {
		s.writeError(w, flow, oops.Code("AUTH_INVALID_ACCOUNT").
			With("account_id", raw).
			Errorf("account id is not valid"))
		return ulid.ULID{}, false
	}
	return id, true
}

// writeError maps a flow error to its HTTP status, counts it and logs the
// server-side ones.
func (s *Server) writeError(w http.ResponseWriter, flow string, err error) {
	code := errutil.ErrorCode(err)
	status := statusForCode(code)

	outcome := code
	if outcome == "" {
		outcome = "error"
	}
	s.countFlow(flow, outcome)
	if code == "AUTH_DELIVERY_FAILED" {
		s.countDelivery("failed")
	}

	if status >= http.StatusInternalServerError {
		errutil.LogError(s.logger, "auth flow failed", err)
		// Internal detail stays out of the response body.
		s.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	s.writeJSON(w, status, errorResponse{Error: userMessage(err), Code: code})
}

// userMessage returns the outermost error message without wrapped detail.
func userMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Error()
	}
	return err.Error()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error is acceptable, client may disconnect
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) countFlow(flow, outcome string) {
	if s.metrics != nil {
		s.metrics.AuthFlows.WithLabelValues(flow, outcome).Inc()
	}
}

func (s *Server) countDelivery(outcome string) {
	if s.metrics != nil {
		s.metrics.OTPDeliveries.WithLabelValues(outcome).Inc()
	}
}
