// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

package auth

import (
	"errors"
	"net/http"
)

// Messages returned to callers.
const (
	MessageRegistered      = "Registered successfully"
	MessageLoggedIn        = "Logged in successfully"
	MessagePasswordChanged = "Password changed successfully"
	MessageRevoked         = "All sessions revoked"
	MessageTokenValid      = "Session is valid"

	MessageDuplicateEmail     = "Email is already registered"
	MessageInvalidCredentials = "Email or password is not correct"
	MessageRateLimited        = "Too many attempts, try again later"
	MessageInvalidSession     = "Session is invalid or expired"
	MessageNotFound           = "Identity not found"
	MessageUnavailable        = "Service temporarily unavailable"
	MessageInternal           = "Internal server error"
	MessageInvalidInput       = "Input is not valid"
)

// Result is the JSON shape handed to the transport layer.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

// Succeeded builds a success Result, including the token value when set.
func Succeeded(message string, token SessionToken) (Result, int) {
	return Result{Success: true, Message: message, Token: token.Value}, http.StatusOK
}

// Failed maps err onto a stable Result and HTTP status. Internal detail is
// never copied into the message; only PolicyError messages pass through.
func Failed(err error) (Result, int) {
	kind := KindOf(err)
	return Result{Success: false, Message: messageFor(kind, err)}, HTTPStatus(kind)
}

// HTTPStatus returns the status code for an error kind.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNone:
		return http.StatusOK
	case KindInvalidInput, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindDuplicateEmail:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	case KindStoreUnavailable, KindHashing:
		return http.StatusServiceUnavailable
	case KindMalformed, KindBadSignature, KindExpired, KindRevoked, KindUnknownSubject:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(kind Kind, err error) string {
	switch kind {
	case KindInvalidInput:
		var pe *PolicyError
		if errors.As(err, &pe) {
			return pe.Message
		}
		return MessageInvalidInput
	case KindDuplicateEmail:
		return MessageDuplicateEmail
	case KindInvalidCredentials:
		return MessageInvalidCredentials
	case KindRateLimited:
		return MessageRateLimited
	case KindNotFound:
		return MessageNotFound
	case KindStoreUnavailable, KindHashing:
		return MessageUnavailable
	default:
		if kind.IsTokenRejection() {
			return MessageInvalidSession
		}
		return MessageInternal
	}
}
