package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openmusic/openmusic/internal/apperror"
	"github.com/openmusic/openmusic/internal/handler/dto"
	"github.com/openmusic/openmusic/internal/middleware"
)

// MsgServerError is the only message clients see for unclassified failures.
const MsgServerError = "Maaf, terjadi kegagalan pada server kami."

const msgPayloadTooLarge = "Payload terlalu besar"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, dto.Response{
		Status:  dto.StatusSuccess,
		Message: message,
		Data:    data,
	})
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, dto.Response{
		Status:  dto.StatusFail,
		Message: message,
	})
}

// writeError turns err into a response. Classified errors become a fail
// envelope with their own status and message. Anything else is logged and
// answered with the generic 500 envelope.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if appErr, ok := apperror.Classify(err); ok {
		writeFail(w, appErr.StatusCode(), appErr.Message)
		return
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeFail(w, http.StatusRequestEntityTooLarge, msgPayloadTooLarge)
		return
	}

	logger.Error("request failed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)

	writeJSON(w, http.StatusInternalServerError, dto.Response{
		Status:  dto.StatusError,
		Message: MsgServerError,
	})
}
