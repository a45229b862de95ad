package transaction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dokterku/clinic-finance/internal"
	"github.com/dokterku/clinic-finance/internal/auth"
	"github.com/dokterku/clinic-finance/internal/budget"
	"github.com/dokterku/clinic-finance/internal/transport"
	"github.com/dokterku/clinic-finance/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	CreateTransaction(userID int64, dto CreateTransactionDTO) (*Transaction, *budget.Verdict, error)
	GetTransactionByID(id, userID int64, userPermissions []string) (*Transaction, error)
	ListTransactions(filter ListFilter, userID int64, userPermissions []string) ([]*Transaction, error)
	Approve(txID, actorID int64, note string, userPermissions []string) (*Transaction, error)
	Reject(txID, actorID int64, reason string, userPermissions []string) (*Transaction, error)
	RequestRevision(txID, actorID int64, notes string, userPermissions []string) (*Transaction, error)
	RevertToPending(txID, actorID int64, reason string, userPermissions []string) (*Transaction, error)
	AddNote(txID, actorID int64, text string, userPermissions []string) (*Transaction, error)
	RunQuickAction(rule string, scope Scope, actorID int64, userPermissions []string) (*QuickActionResult, error)
	TransactionInsights(id, userID int64, userPermissions []string) (*Insights, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*auth.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.Logger.Error("user not found in context", "path", r.URL.Path)
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

func (h *Handler) transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("invalid transaction ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid transaction ID")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var dto CreateTransactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTransaction: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, verdict, err := h.Service.CreateTransaction(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateTransaction: service error", "error", err, "user_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTransaction: transaction created",
		"transaction_id", tx.ID,
		"user_id", user.ID,
		"amount", tx.AmountIDR)

	h.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"transaction":    tx,
		"budget_verdict": verdict,
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var filter ListFilter
	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		kind := Kind(kindStr)
		if !kind.Valid() {
			h.WriteError(w, http.StatusBadRequest, "invalid kind filter")
			return
		}
		filter.Kind = &kind
	}
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		status, err := ParseStatus(statusStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &status
	}
	filter.Category = r.URL.Query().Get("category")
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}
	filter.Defaults()

	txs, err := h.Service.ListTransactions(filter, user.ID, user.Permissions)
	if err != nil {
		h.Logger.Error("ListTransactions: service error", "error", err, "user_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	tx, err := h.Service.GetTransactionByID(id, user.ID, user.Permissions)
	if err != nil {
		h.Logger.Error("GetTransaction: service error", "error", err, "transaction_id", id, "user_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) ApproveTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	var dto ApproveDTO
	if r.Body != nil {
		// note is optional; an empty body is fine
		_ = json.NewDecoder(r.Body).Decode(&dto)
	}

	tx, err := h.Service.Approve(id, user.ID, dto.Note, user.Permissions)
	if err != nil {
		h.Logger.Error("ApproveTransaction: service error", "error", err, "transaction_id", id, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("ApproveTransaction: approved", "transaction_id", id, "actor_id", user.ID)
	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) RejectTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	var dto RejectDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RejectTransaction: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.Reject(id, user.ID, dto.Reason, user.Permissions)
	if err != nil {
		h.Logger.Error("RejectTransaction: service error", "error", err, "transaction_id", id, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("RejectTransaction: rejected",
		"transaction_id", id,
		"actor_id", user.ID,
		"reason", dto.Reason)
	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	var dto RevisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RequestRevision: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.RequestRevision(id, user.ID, dto.Notes, user.Permissions)
	if err != nil {
		h.Logger.Error("RequestRevision: service error", "error", err, "transaction_id", id, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) RevertTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	var dto RevertDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RevertTransaction: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.RevertToPending(id, user.ID, dto.Reason, user.Permissions)
	if err != nil {
		h.Logger.Error("RevertTransaction: service error", "error", err, "transaction_id", id, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	var dto NoteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AddNote: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Service.AddNote(id, user.ID, dto.Text, user.Permissions)
	if err != nil {
		h.Logger.Error("AddNote: service error", "error", err, "transaction_id", id, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) TransactionInsights(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := h.transactionID(w, r)
	if !ok {
		return
	}

	insights, err := h.Service.TransactionInsights(id, user.ID, user.Permissions)
	if err != nil {
		h.Logger.Error("TransactionInsights: service error", "error", err, "transaction_id", id)
		h.writeServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, insights)
}

func (h *Handler) RunQuickAction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var dto QuickActionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RunQuickAction: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.RunQuickAction(dto.Rule, dto.Scope, user.ID, user.Permissions)
	if err != nil {
		h.Logger.Error("RunQuickAction: service error", "error", err, "rule", dto.Rule, "actor_id", user.ID)
		h.writeServiceError(w, err)
		return
	}

	h.Logger.Info("RunQuickAction: completed",
		"rule", result.Rule,
		"affected", result.Affected,
		"skipped", result.Skipped,
		"actor_id", user.ID)

	h.WriteJSON(w, http.StatusOK, result)
}
