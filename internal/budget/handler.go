package budget

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dokterku/clinic-finance/internal/auth"
	"github.com/dokterku/clinic-finance/internal/transport"
	"github.com/dokterku/clinic-finance/pkg/logger"
)

type ServiceAPI interface {
	Check(category string, amountIDR int64, month time.Time, excludeID *int64) (*Verdict, error)
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

// CheckBudget serves GET /budget/check?category=&amount=&month=2026-08.
// The month defaults to the current calendar month.
func (h *Handler) CheckBudget(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserFromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	category := r.URL.Query().Get("category")
	if category == "" {
		h.WriteError(w, http.StatusBadRequest, "category is required")
		return
	}

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount < 0 {
		h.WriteError(w, http.StatusBadRequest, "amount must be a non-negative integer")
		return
	}

	month := time.Now()
	if monthStr := r.URL.Query().Get("month"); monthStr != "" {
		parsed, err := time.Parse("2006-01", monthStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		month = parsed
	}

	var excludeID *int64
	if excludeStr := r.URL.Query().Get("exclude_id"); excludeStr != "" {
		id, err := strconv.ParseInt(excludeStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "exclude_id must be an integer")
			return
		}
		excludeID = &id
	}

	verdict, err := h.Service.Check(category, amount, month, excludeID)
	if err != nil {
		h.Logger.Error("CheckBudget: service error", "error", err, "category", category)
		h.WriteError(w, http.StatusInternalServerError, "failed to check budget")
		return
	}

	h.WriteJSON(w, http.StatusOK, verdict)
}
