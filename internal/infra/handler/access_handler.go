package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"labsite/internal/usecase/access"
)

const maxAccessBodyBytes = 4 << 10

var (
	errInvalidBody  = errors.New("invalid JSON body")
	errCodeRequired = errors.New("code is required")
)

// AccessValidator checks course access codes.
type AccessValidator interface {
	Validate(code string) access.Grant
}

// AccessHandler serves course access checks.
type AccessHandler struct {
	validator AccessValidator
}

// NewAccessHandler creates an AccessHandler.
func NewAccessHandler(validator AccessValidator) *AccessHandler {
	return &AccessHandler{validator: validator}
}

// RegisterRoutes attaches routes to the router.
func (h *AccessHandler) RegisterRoutes(r chiRouter) {
	r.Post("/course/access", h.handleAccess)
}

type accessRequest struct {
	Code string `json:"code"`
}

func (h *AccessHandler) handleAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAccessBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidBody)
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, errCodeRequired)
		return
	}
	writeJSON(w, http.StatusOK, h.validator.Validate(req.Code))
}
