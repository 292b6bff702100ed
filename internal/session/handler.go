package session

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/slateboard/slateboard/backend-go/internal/auth"
	"github.com/slateboard/slateboard/backend-go/internal/typeid"
)

const maxDocumentBytes = 4 << 20

type Handler struct {
	service     *Service
	authService *auth.Service
	logger      *slog.Logger
}

func NewHandler(service *Service, authService *auth.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, authService: authService, logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	authed := auth.Middleware(h.authService)

	r.Handle("/api/boards", authed(http.HandlerFunc(h.handleCreateBoard))).Methods("POST")
	r.Handle("/api/boards", authed(http.HandlerFunc(h.handleListBoards))).Methods("GET")
	r.Handle("/api/boards/{id}", authed(http.HandlerFunc(h.handleGetBoard))).Methods("GET")
	r.Handle("/api/boards/{id}", authed(http.HandlerFunc(h.handleDeleteBoard))).Methods("DELETE")
	r.Handle("/api/boards/{id}/document", authed(http.HandlerFunc(h.handleGetDocument))).Methods("GET")
	r.Handle("/api/boards/{id}/participants", authed(http.HandlerFunc(h.handleListParticipants))).Methods("GET")
	r.Handle("/api/boards/{id}/participants/{userId}", authed(http.HandlerFunc(h.handleRemoveParticipant))).Methods("DELETE")

	r.Handle("/api/templates", authed(http.HandlerFunc(h.handleCreateTemplate))).Methods("POST")
	r.Handle("/api/templates", authed(http.HandlerFunc(h.handleListTemplates))).Methods("GET")

	// Students join with a code, no account required.
	r.HandleFunc("/api/join", h.handleJoin).Methods("POST")
}

type createBoardRequest struct {
	Name       string `json:"name"`
	TemplateID string `json:"templateId,omitempty"`
}

func (h *Handler) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req createBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		req.Name = "Untitled board"
	}

	info, err := h.service.CreateBoard(r.Context(), userID, req.Name, req.TemplateID)
	if err != nil {
		h.logger.Error("create board failed", "error", err, "owner", userID)
		writeError(w, http.StatusInternalServerError, "could not create board")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleListBoards(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	boards, err := h.service.ListBoards(r.Context(), userID)
	if err != nil {
		h.logger.Error("list boards failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list boards")
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *Handler) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	info, err := h.service.GetBoard(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "board not found")
			return
		}
		h.logger.Error("get board failed", "error", err, "board", boardID)
		writeError(w, http.StatusInternalServerError, "could not load board")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["id"]

	err := h.service.DeleteBoard(r.Context(), boardID, userID)
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "board not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "only the owner can delete a board")
	case err != nil:
		h.logger.Error("delete board failed", "error", err, "board", boardID)
		writeError(w, http.StatusInternalServerError, "could not delete board")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	doc, version, err := h.service.LatestDocument(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no document for board")
			return
		}
		h.logger.Error("get document failed", "error", err, "board", boardID)
		writeError(w, http.StatusInternalServerError, "could not load document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":  version,
		"document": doc,
	})
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["id"]

	parts, err := h.service.ListParticipants(r.Context(), boardID)
	if err != nil {
		h.logger.Error("list participants failed", "error", err, "board", boardID)
		writeError(w, http.StatusInternalServerError, "could not list participants")
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

func (h *Handler) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	vars := mux.Vars(r)

	err := h.service.RemoveParticipant(r.Context(), vars["id"], userID, vars["userId"])
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "board not found")
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "only the owner can remove participants")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type createTemplateRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	var req createTemplateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, "name and document are required")
		return
	}

	info, err := h.service.CreateTemplate(r.Context(), userID, req.Name, req.Document)
	if err != nil {
		h.logger.Error("create template failed", "error", err)
		writeError(w, http.StatusBadRequest, "could not create template")
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	tmpls, err := h.service.ListTemplates(r.Context(), userID)
	if err != nil {
		h.logger.Error("list templates failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not list templates")
		return
	}
	writeJSON(w, http.StatusOK, tmpls)
}

type joinRequest struct {
	Code        string `json:"code"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId,omitempty"`
}

type joinResponse struct {
	Board  *BoardInfo `json:"board"`
	UserID string     `json:"userId"`
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if req.Code == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "code and display name are required")
		return
	}

	// Returning students pass their previously minted ID so they keep
	// their identity across reconnects.
	userID := req.UserID
	if userID == "" {
		userID = typeid.NewUserID()
	}

	info, err := h.service.JoinByCode(r.Context(), req.Code, userID, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no board with that code")
			return
		}
		h.logger.Error("join failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not join board")
		return
	}

	writeJSON(w, http.StatusOK, joinResponse{Board: info, UserID: userID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
