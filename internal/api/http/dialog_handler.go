// Package http is the case-handler-facing HTTP surface. All access-control
// decisions are delegated to the external permission service through the
// application layer; this package only identifies the acting user.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medkom/dialog-gateway/internal/dialog/app"
	"github.com/medkom/dialog-gateway/internal/dialog/domain"
)

// actingUserHeader carries the identity of the case handler on whose behalf
// the request is made. The upstream API gateway authenticates the user and
// sets the header.
const actingUserHeader = "X-Acting-User"

type DialogHandler struct {
	service  *app.DialogService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewDialogHandler(service *app.DialogService, logger *slog.Logger) *DialogHandler {
	return &DialogHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("handler", "dialog"),
	}
}

func (h *DialogHandler) RegisterRoutes(r chi.Router) {
	r.Post("/dialog-messages", h.handleCreateMessage)
	r.Post("/dialog-messages/{messageUUID}/reminder", h.handleCreateReminder)
	r.Post("/statement-returns", h.handleCreateStatementReturn)
	r.Get("/dialog-messages/{messageUUID}", h.handleGetMessage)
}

func (h *DialogHandler) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	actingUser, ok := h.actingUser(w, r, logger)
	if !ok {
		return
	}

	var req CreateMessageRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	msg, err := h.service.CreateOutbound(ctx, actingUser, domain.OutboundSpec{
		Type:          domain.MessageType(req.Type),
		SubjectIdent:  req.SubjectIdent,
		ProviderRef:   req.ProviderRef,
		ProviderIdent: req.ProviderIdent,
		ProviderName:  req.ProviderName,
		Text:          req.Text,
		Document:      toDocumentBlocks(req.Document),
	})
	if err != nil {
		h.serviceError(w, logger, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(msg, nil))
}

func (h *DialogHandler) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	actingUser, ok := h.actingUser(w, r, logger)
	if !ok {
		return
	}
	originalUUID, ok := h.pathUUID(w, r, logger)
	if !ok {
		return
	}

	var req CreateReminderRequest
	if !h.decode(w, r, logger, &req) {
		return
	}

	msg, err := h.service.CreateReminder(ctx, actingUser, originalUUID, req.Text, toDocumentBlocks(req.Document))
	if err != nil {
		h.serviceError(w, logger, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(msg, nil))
}

func (h *DialogHandler) handleCreateStatementReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	actingUser, ok := h.actingUser(w, r, logger)
	if !ok {
		return
	}

	var req CreateStatementReturnRequest
	if !h.decode(w, r, logger, &req) {
		return
	}
	inboundUUID, err := uuid.Parse(req.InboundMessageUUID)
	if err != nil {
		h.jsonError(w, logger, "invalid inbound message uuid", http.StatusBadRequest)
		return
	}

	msg, err := h.service.CreateStatementReturn(ctx, actingUser, inboundUUID, req.Text, toDocumentBlocks(req.Document))
	if err != nil {
		h.serviceError(w, logger, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toMessageResponse(msg, nil))
}

func (h *DialogHandler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	actingUser, ok := h.actingUser(w, r, logger)
	if !ok {
		return
	}
	id, ok := h.pathUUID(w, r, logger)
	if !ok {
		return
	}

	result, err := h.service.Get(ctx, actingUser, id)
	if err != nil {
		h.serviceError(w, logger, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toMessageResponse(result.Message, result.Status))
}

func (h *DialogHandler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", chimiddleware.GetReqID(r.Context()))
}

func (h *DialogHandler) actingUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	user := r.Header.Get(actingUserHeader)
	if user == "" {
		h.jsonError(w, logger, "missing acting user", http.StatusUnauthorized)
		return "", false
	}
	return user, true
}

func (h *DialogHandler) pathUUID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "messageUUID"))
	if err != nil {
		h.jsonError(w, logger, "invalid message uuid", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *DialogHandler) decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.jsonError(w, logger, "invalid request payload", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.jsonError(w, logger, "validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// serviceError maps application and domain errors onto HTTP statuses.
func (h *DialogHandler) serviceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, app.ErrPermissionDenied):
		h.jsonError(w, logger, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrMessageNotFound):
		h.jsonError(w, logger, "message not found", http.StatusNotFound)
	case errors.Is(err, app.ErrNoStatementToReturn),
		errors.Is(err, domain.ErrTypeNotCreatable),
		errors.Is(err, domain.ErrSubjectRequired),
		errors.Is(err, domain.ErrProviderRefRequired),
		errors.Is(err, domain.ErrReminderNotAllowed),
		errors.Is(err, domain.ErrOriginalNotOutbound),
		errors.Is(err, domain.ErrNotInboundStatement),
		errors.Is(err, domain.ErrNotStatementRequest),
		errors.Is(err, domain.ErrConversationMismatch):
		h.jsonError(w, logger, err.Error(), http.StatusUnprocessableEntity)
	default:
		logger.Error("request failed", "error", err)
		h.jsonError(w, logger, "internal error", http.StatusInternalServerError)
	}
}

func (h *DialogHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *DialogHandler) jsonError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Warn("api error response", "status_code", statusCode, "message", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message}) //nolint:errcheck
}
