// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
)

// maxBodyBytes bounds ceremony request bodies. Attestation responses top
// out well under this.
const maxBodyBytes = 1 << 20

// Handler provides HTTP handlers for passkey ceremony operations.
// These handlers can be mounted on any HTTP router.
type Handler struct {
	service *passkey.Service
	logger  *slog.Logger
}

// NewHandler creates a new passkey HTTP handler.
func NewHandler(service *passkey.Service) *Handler {
	return &Handler{
		service: service,
		logger:  slog.Default(),
	}
}

// WithLogger sets a custom logger for the handler.
func (h *Handler) WithLogger(logger *slog.Logger) *Handler {
	h.logger = logger
	return h
}

// BeginRegistration handles POST /registration/begin
//
// Header: X-User-Id (required)
// Request body (optional):
//
//	{
//	    "display_name": "User Name"
//	}
//
// Response: WebAuthn PublicKeyCredentialCreationOptions
func (h *Handler) BeginRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req BeginRegistrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && err != io.EOF {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}

	options, err := h.service.BeginRegistration(r.Context(), userID, req.DisplayName)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// FinishRegistration handles POST /registration/finish
//
// Header: X-User-Id (required)
// Request body:
//
//	{
//	    "name": "Work Laptop",
//	    "response": { ...attestation response from the authenticator... }
//	}
//
// Response: AuthResponse with token and the new passkey
func (h *Handler) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req FinishRegistrationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid request body")
		return
	}
	if len(req.Response) == 0 {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "attestation response is required")
		return
	}

	registered, err := h.service.FinishRegistration(r.Context(), userID, req.Name, req.Response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	token, err := h.service.IssueToken(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:   token,
		Passkey: toPasskeyResponse(registered),
	})
}

// BeginLogin handles POST /login/begin
//
// Header: X-User-Id (required)
// Response: WebAuthn PublicKeyCredentialRequestOptions
func (h *Handler) BeginLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	options, err := h.service.BeginLogin(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, options)
}

// FinishLogin handles POST /login/finish
//
// Header: X-User-Id (required)
// Request body: assertion response from the authenticator
// Response: AuthResponse with token and the authenticated passkey
func (h *Handler) FinishLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	response, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || len(response) == 0 {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "assertion response is required")
		return
	}

	authenticated, err := h.service.FinishLogin(r.Context(), userID, response)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	token, err := h.service.IssueToken(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AuthResponse{
		Token:   token,
		Passkey: toPasskeyResponse(authenticated),
	})
}

// RegistrationStatus handles GET /registration/status
//
// Header: X-User-Id (required)
// Response: {"registered": true/false}
func (h *Handler) RegistrationStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	registered, err := h.service.IsRegistered(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RegistrationStatusResponse{Registered: registered})
}

// ListPasskeys handles GET /passkeys
//
// Header: X-User-Id (required)
// Response: array of PasskeyResponse
func (h *Handler) ListPasskeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	passkeys, err := h.service.ListPasskeys(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	response := make([]PasskeyResponse, 0, len(passkeys))
	for _, p := range passkeys {
		response = append(response, toPasskeyResponse(p))
	}
	h.writeJSON(w, http.StatusOK, response)
}

// DeletePasskey handles DELETE /passkeys/{id}
//
// Header: X-User-Id (required)
// The {id} path segment is the base64url-encoded credential ID.
func (h *Handler) DeletePasskey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		h.writeError(w, http.StatusMethodNotAllowed, ErrorCodeInvalidRequest, "method not allowed")
		return
	}

	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	encoded := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	id, err := passkey.ParsePasskeyID(encoded)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid passkey ID")
		return
	}

	if err := h.service.DeletePasskey(r.Context(), userID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// userID extracts and validates the caller's user ID header. It writes the
// error response itself when the header is missing or malformed.
func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (passkey.UserID, bool) {
	userID, err := passkey.ParseUserID(r.Header.Get(HeaderUserID))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "user ID header is required")
		return "", false
	}
	return userID, true
}

// handleServiceError maps service errors to HTTP responses. Verification
// detail never leaves the server; clients get a generic failure while the
// specifics go to the log.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, passkey.ErrInvalidUserID):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "invalid user ID")
	case errors.Is(err, passkey.ErrInvalidName):
		h.writeError(w, http.StatusBadRequest, ErrorCodeInvalidName, nameErrorMessage(err))
	case errors.Is(err, passkey.ErrDuplicateName):
		h.writeError(w, http.StatusConflict, ErrorCodeDuplicateName, "a passkey with this name already exists")
	case errors.Is(err, passkey.ErrChallengeNotFound):
		h.writeError(w, http.StatusBadRequest, ErrorCodeChallengeNotFound, "no ceremony in progress")
	case errors.Is(err, passkey.ErrChallengeExpired):
		h.writeError(w, http.StatusBadRequest, ErrorCodeChallengeExpired, "ceremony expired, start over")
	case errors.Is(err, passkey.ErrPasskeyNotFound):
		h.writeError(w, http.StatusNotFound, ErrorCodePasskeyNotFound, "passkey not found")
	case errors.Is(err, passkey.ErrNoCredentials):
		h.writeError(w, http.StatusBadRequest, ErrorCodeNoCredentials, "user has no registered passkeys")
	case errors.Is(err, passkey.ErrVerificationFailed):
		h.writeError(w, http.StatusUnauthorized, ErrorCodeVerificationFailed, "verification failed")
	default:
		h.logger.Error("ceremony operation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal server error")
	}
}

// nameErrorMessage returns the specific rejection reason for a name error.
func nameErrorMessage(err error) string {
	var nameErr *passkey.NameError
	if errors.As(err, &nameErr) {
		return nameErr.Error()
	}
	return "invalid passkey name"
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Response headers already written, can only log the error
		h.logger.Error("failed to encode JSON response",
			"error", err,
			"status", status)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
