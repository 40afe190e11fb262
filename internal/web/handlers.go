package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/khata/internal/domain"
	"github.com/vadiminshakov/khata/internal/httputil"
	"github.com/vadiminshakov/khata/internal/ledger"
	"github.com/vadiminshakov/khata/internal/reports"
)

const saveWarning = "recorded, but saving to durable storage failed; data is kept in memory for this session"

type transactionRequest struct {
	CustomerID *int64          `json:"customerId,omitempty"`
	Category   domain.Category `json:"category"`
	Details    json.RawMessage `json:"details"`
}

type transactionResponse struct {
	Transaction     *domain.Transaction     `json:"transaction,omitempty"`
	ShopTransaction *domain.ShopTransaction `json:"shopTransaction,omitempty"`
	Warning         string                  `json:"warning,omitempty"`
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.Ledger.Customers())
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var profile domain.CustomerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid customer profile")
		return
	}
	if profile.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "customer name is required")
		return
	}

	customer, err := s.Ledger.CreateCustomer(r.Context(), profile)
	if errors.Is(err, ledger.ErrSaveFailed) {
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{"customer": customer, "warning": saveWarning})
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, customer)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	customer, err := s.Ledger.Customer(id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	var profile domain.CustomerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid customer profile")
		return
	}

	s.writeMutationResult(w, s.Ledger.UpdateCustomer(r.Context(), id, profile))
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := customerID(w, r)
	if !ok {
		return
	}

	s.writeMutationResult(w, s.Ledger.DeleteCustomer(r.Context(), id))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid transaction request")
		return
	}

	details, err := domain.DecodeDetails(req.Category, req.Details)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload := domain.TransactionPayload{Category: req.Category, Details: details}

	var resp transactionResponse
	if req.CustomerID != nil {
		tx, err := s.Ledger.AddTransaction(r.Context(), *req.CustomerID, payload)
		if err != nil && !errors.Is(err, ledger.ErrSaveFailed) {
			s.writeEngineError(w, err)
			return
		}
		resp.Transaction = &tx
		if errors.Is(err, ledger.ErrSaveFailed) {
			resp.Warning = saveWarning
		}
	} else {
		tx, err := s.Ledger.AddShopTransaction(r.Context(), payload)
		if err != nil && !errors.Is(err, ledger.ErrSaveFailed) {
			s.writeEngineError(w, err)
			return
		}
		resp.ShopTransaction = &tx
		if errors.Is(err, ledger.ErrSaveFailed) {
			resp.Warning = saveWarning
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleShopTransactions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.Ledger.ShopTransactions())
}

func (s *Server) handleShopCashPosition(w http.ResponseWriter, r *http.Request) {
	position := reports.ShopCashPosition(s.Ledger.ShopTransactions())
	httputil.WriteJSON(w, http.StatusOK, map[string]decimal.Decimal{"cashPosition": position})
}

func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.Ledger.LiveRates())
}

func (s *Server) handleUpdateRates(w http.ResponseWriter, r *http.Request) {
	metal := domain.Metal(chi.URLParam(r, "metal"))
	if !metal.IsValid() {
		httputil.WriteError(w, http.StatusBadRequest, "unknown metal")
		return
	}

	var quote domain.Quote
	if err := json.NewDecoder(r.Body).Decode(&quote); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid quote")
		return
	}

	err := s.Ledger.UpdateLiveRates(r.Context(), metal, quote)
	if err != nil && !errors.Is(err, ledger.ErrSaveFailed) {
		s.writeEngineError(w, err)
		return
	}
	if errors.Is(err, ledger.ErrSaveFailed) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"rates": s.Ledger.LiveRates(), "warning": saveWarning})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.Ledger.LiveRates())
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.DateOnly, r.URL.Query().Get("from"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(time.DateOnly, r.URL.Query().Get("to"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	// day boundaries are inclusive
	to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)

	summary := reports.OpeningClosing(s.Ledger.Customers(), from, to)
	httputil.WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDues(w http.ResponseWriter, r *http.Request) {
	dues, total := reports.MarketDues(s.Ledger.Customers())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"dues": dues, "total": total})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	top := 10
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, http.StatusBadRequest, "top must be a positive integer")
			return
		}
		top = n
	}
	httputil.WriteJSON(w, http.StatusOK, reports.BusinessVolume(s.Ledger.Customers(), top))
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	buckets := reports.DailyValue(s.Ledger.Customers(), s.Ledger.ShopTransactions())
	httputil.WriteJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeMutationResult(w, s.Ledger.ClearAllTransactions(r.Context()))
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	s.writeMutationResult(w, s.Ledger.ClearAllData(r.Context()))
}

// writeMutationResult finishes a bodyless mutation: 204 on success, 200
// with the durability warning when only the save failed.
func (s *Server) writeMutationResult(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrSaveFailed) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"warning": saveWarning})
		return
	}
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrCustomerNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrShopCategory):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	}
}

func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid customer id")
		return 0, false
	}
	return id, true
}
