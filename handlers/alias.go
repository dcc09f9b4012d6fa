package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/camden-git/aliasbackend/database"
	"github.com/camden-git/aliasbackend/index"
	"github.com/camden-git/aliasbackend/logger"
	"github.com/camden-git/aliasbackend/memo"
	"github.com/camden-git/aliasbackend/realtime"
	"github.com/camden-git/aliasbackend/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}, log *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Error("error encoding JSON response", "error", err)
		}
	}
}

// AliasWriter submits alias memos. *services.AliasService implements it.
type AliasWriter interface {
	Register(ctx context.Context, aliasID string) (services.RegisterResult, error)
	Confirm(ctx context.Context, from, to string) (services.ConfirmResult, error)
}

// AliasIndex answers read queries. *index.Reader implements it.
type AliasIndex interface {
	List(order string) ([]index.Record, error)
	Lookup(alias string) (index.Record, bool, error)
}

type AliasHandler struct {
	Service AliasWriter
	Index   AliasIndex
	Events  *realtime.Hub // optional
	Log     *logger.Logger
}

func NewAliasHandler(service AliasWriter, idx AliasIndex, log *logger.Logger) *AliasHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AliasHandler{Service: service, Index: idx, Log: log.With("component", "http")}
}

type registerResponse struct {
	Success bool   `json:"success"`
	Alias   string `json:"alias"`
	TxHash  string `json:"txHash"`
	Memo    string `json:"memo"`
}

type confirmResponse struct {
	Success bool   `json:"success"`
	From    string `json:"from"`
	To      string `json:"to"`
	TxHash  string `json:"txHash"`
	Memo    string `json:"memo"`
}

type listResponse struct {
	Aliases []index.Record `json:"aliases"`
}

func (h *AliasHandler) CreateAlias(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AliasID string `json:"aliasId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AliasID == "" {
		WriteAPIError(w, http.StatusBadRequest, "Missing required field: aliasId")
		return
	}

	res, err := h.Service.Register(r.Context(), req.AliasID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.Events.Broadcast(realtime.Event{Type: realtime.EventAliasRegistered, Alias: res.Alias, TxHash: res.TxHash})
	writeJSON(w, http.StatusOK, registerResponse{
		Success: true,
		Alias:   res.Alias,
		TxHash:  res.TxHash,
		Memo:    res.Memo,
	}, h.Log)
}

func (h *AliasHandler) ConfirmAlias(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromAlias string `json:"fromAlias"`
		ToAlias   string `json:"toAlias"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.FromAlias == "" || req.ToAlias == "" {
		WriteAPIError(w, http.StatusBadRequest, "Missing required fields: fromAlias and toAlias")
		return
	}

	res, err := h.Service.Confirm(r.Context(), req.FromAlias, req.ToAlias)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.Events.Broadcast(realtime.Event{Type: realtime.EventAliasConfirmed, From: res.From, To: res.To, TxHash: res.TxHash})
	writeJSON(w, http.StatusOK, confirmResponse{
		Success: true,
		From:    res.From,
		To:      res.To,
		TxHash:  res.TxHash,
		Memo:    res.Memo,
	}, h.Log)
}

func (h *AliasHandler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, memo.ErrInvalidInput) {
		WriteAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteAPIError(w, http.StatusInternalServerError, err.Error())
}

// ListAliases serves GET /aliases?sort=height|name.
func (h *AliasHandler) ListAliases(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("sort")
	if order != "" && !database.IsValidSortOrder(order) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid sort order. Use 'height' or 'name'."}, h.Log)
		return
	}

	records, err := h.Index.List(order)
	if err != nil {
		h.Log.Error("error listing aliases", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve aliases"}, h.Log)
		return
	}
	if records == nil {
		records = []index.Record{}
	}
	writeJSON(w, http.StatusOK, listResponse{Aliases: records}, h.Log)
}

func (h *AliasHandler) GetAlias(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	// chi routes on RawPath when the request carried one
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(alias)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid alias in path"}, h.Log)
			return
		}
		alias = unescaped
	}

	record, ok, err := h.Index.Lookup(alias)
	if err != nil {
		h.Log.Error("error looking up alias", "alias", alias, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve alias"}, h.Log)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Alias not found"}, h.Log)
		return
	}
	writeJSON(w, http.StatusOK, record, h.Log)
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Alias backend is running"))
}
