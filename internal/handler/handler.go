// Package handler provides HTTP request handlers.
package handler

import (
	"net/http"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler serves the root endpoint and router fallbacks.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello reports service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "OpenMusic API", map[string]string{
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeFail(w, http.StatusNotFound, "Resource tidak ditemukan")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeFail(w, http.StatusMethodNotAllowed, "Method tidak diizinkan")
}
