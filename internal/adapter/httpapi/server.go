package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
	"github.com/finvault/transferflow/internal/usecase/intake"
	"github.com/finvault/transferflow/internal/usecase/status"
)

// Server exposes the transfer pipeline over HTTP: submission endpoints that
// answer 202 with a transfer ID, and a polling endpoint backed by the job
// record store.
type Server struct {
	IntakeService *intake.IntakeService
	StatusService *status.StatusService
	Logger        *slog.Logger

	// APIToken, when set, requires a matching bearer token on every
	// request except the health endpoint.
	APIToken string
}

// NewServer creates a new HTTP server instance
func NewServer(intakeService *intake.IntakeService, statusService *status.StatusService, logger *slog.Logger) *Server {
	return &Server{
		IntakeService: intakeService,
		StatusService: statusService,
		Logger:        logger,
	}
}

// Router builds the chi router with all routes mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.APIToken != "" {
		r.Use(authMiddleware(s.APIToken))
	}

	r.Post("/transfer", s.handleTransfer)
	r.Post("/deposit", s.handleDeposit)
	r.Get("/transfer_status/{transferID}", s.handleTransferStatus)
	r.Get("/healthz", s.handleHealth)

	return r
}

type transferRequest struct {
	FromAccount string `json:"from_account"`
	ToAccount   string `json:"to_account"`
	Amount      string `json:"amount"`
}

type depositRequest struct {
	AccountNumber string `json:"account_number"`
	Amount        string `json:"amount"`
}

type transferAcceptedResponse struct {
	TransferID string `json:"transfer_id"`
}

type transferStatusResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Result     string `json:"result,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleTransfer accepts a transfer request and answers 202 immediately.
// The caller polls /transfer_status for the outcome.
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid amount format")
		return
	}

	transferID, err := s.IntakeService.SubmitTransfer(r.Context(), intake.SubmitTransferInput{
		FromAccount: req.FromAccount,
		ToAccount:   req.ToAccount,
		Amount:      amount,
	})
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, transferAcceptedResponse{TransferID: transferID.String()})
}

// handleDeposit accepts an external credit to a single account
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid amount format")
		return
	}

	transferID, err := s.IntakeService.SubmitDeposit(r.Context(), req.AccountNumber, amount)
	if err != nil {
		s.writeSubmitError(w, err)
		return
	}

	s.writeJSON(w, http.StatusAccepted, transferAcceptedResponse{TransferID: transferID.String()})
}

// handleTransferStatus reports a job's current state from the record store
func (s *Server) handleTransferStatus(w http.ResponseWriter, r *http.Request) {
	transferID, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid transfer_id format")
		return
	}

	st, err := s.StatusService.GetStatus(r.Context(), transferID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "transfer not found")
			return
		}
		s.Logger.Error("failed to look up transfer status", "transfer_id", transferID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, transferStatusResponse{
		TransferID: st.TransferID.String(),
		Status:     string(st.Status),
		Result:     st.Result,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeSubmitError maps intake errors to HTTP statuses. Validation failures
// are the caller's fault; a full queue or a broker failure is back-pressure
// the caller should retry later.
func (s *Server) writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAccountNumber),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrDispatchFailed):
		s.writeError(w, http.StatusServiceUnavailable, "transfer pipeline unavailable, try again later")
	default:
		s.Logger.Error("failed to accept transfer", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, errorResponse{Error: message})
}
