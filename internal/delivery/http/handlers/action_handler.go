package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/provider"
	"github.com/otpgate/activation-service/internal/usecase/activation"
	actiondto "github.com/otpgate/activation-service/internal/delivery/http/dto/action"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
)

type ActionHandler struct {
	Usecase activation.ActivationUsecase
	logger  *slog.Logger
}

func NewActionHandler(uc activation.ActivationUsecase, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{Usecase: uc, logger: logger}
}

// HandleAction is the single caller-facing endpoint. The action field of the
// body picks the operation; every response carries an apiStatus mirroring
// the raw provider status token.
func (h *ActionHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	var req actiondto.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "invalid request body",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
		return
	}

	switch req.Action {
	case actiondto.ActionGetNumber:
		h.handleGetNumber(w, r, &req)
	case actiondto.ActionGetMessage:
		h.handleGetMessage(w, r, &req)
	case actiondto.ActionNextSMS:
		h.handleNextSMS(w, r, &req)
	case actiondto.ActionCancelNumber:
		h.handleCancelNumber(w, r, &req)
	default:
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "unknown action",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
	}
}

func (h *ActionHandler) handleGetNumber(w http.ResponseWriter, r *http.Request, req *actiondto.ActionRequest) {
	if req.UserID == "" || req.ServerID == "" || req.ServiceID == "" {
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "userId, serverId and serviceId are required",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
		return
	}

	out, err := h.Usecase.GetNumber(r.Context(), &activationdto.GetNumberInput{
		UserID:    req.UserID,
		ServerID:  req.ServerID,
		ServiceID: req.ServiceID,
	})
	if err != nil {
		h.logger.Warn("get_number failed", "user_id", req.UserID, "server_id", req.ServerID, "error", err.Error())
		writeJSON(w, http.StatusOK, errorResponse(err))
		return
	}

	writeJSON(w, http.StatusOK, actiondto.GetNumberResponse{
		Success:    true,
		Activation: actiondto.ToActivationView(&out.Activation),
		NewBalance: out.NewBalance,
		APIStatus:  out.APIStatus,
	})
}

func (h *ActionHandler) handleGetMessage(w http.ResponseWriter, r *http.Request, req *actiondto.ActionRequest) {
	if req.ActivationID == "" {
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "activationId is required",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
		return
	}

	out, err := h.Usecase.GetMessage(r.Context(), req.ActivationID)
	if err != nil {
		h.logger.Warn("get_message failed", "activation_id", req.ActivationID, "error", err.Error())
		writeJSON(w, http.StatusOK, errorResponse(err))
		return
	}

	writeJSON(w, http.StatusOK, actiondto.GetMessageResponse{
		Success:       true,
		HasOtp:        out.HasOtp,
		Message:       out.Message,
		Waiting:       out.Waiting,
		WaitingRetry:  out.WaitingRetry,
		LastCode:      out.LastCode,
		Cancelled:     out.Cancelled,
		AutoCancelled: out.AutoCancelled,
		NewBalance:    out.NewBalance,
		APIStatus:     out.APIStatus,
	})
}

func (h *ActionHandler) handleNextSMS(w http.ResponseWriter, r *http.Request, req *actiondto.ActionRequest) {
	if req.ActivationID == "" {
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "activationId is required",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
		return
	}

	out, err := h.Usecase.NextSMS(r.Context(), req.ActivationID)
	if err != nil {
		h.logger.Warn("next_sms failed", "activation_id", req.ActivationID, "error", err.Error())
		resp := errorResponse(err)
		var provErr *domain.ProviderError
		if !errors.As(err, &provErr) {
			resp.APIStatus = "TIMEOUT"
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeJSON(w, http.StatusOK, actiondto.NextSMSResponse{
		Success:   true,
		APIStatus: out.APIStatus,
	})
}

func (h *ActionHandler) handleCancelNumber(w http.ResponseWriter, r *http.Request, req *actiondto.ActionRequest) {
	if req.ActivationID == "" {
		writeJSON(w, http.StatusBadRequest, actiondto.ErrorResponse{
			Error:     "activationId is required",
			ErrorType: "BAD_REQUEST",
			APIStatus: "BAD_ACTION",
		})
		return
	}

	out, err := h.Usecase.CancelNumber(r.Context(), req.ActivationID)
	if err != nil {
		h.logger.Warn("cancel_number failed", "activation_id", req.ActivationID, "error", err.Error())
		writeJSON(w, http.StatusOK, errorResponse(err))
		return
	}

	writeJSON(w, http.StatusOK, actiondto.CancelNumberResponse{
		Success:    true,
		Refunded:   out.Refunded,
		NewBalance: out.NewBalance,
		APIStatus:  out.APIStatus,
	})
}

// errorResponse maps the error taxonomy onto the stable errorType/apiStatus
// pairs UI layers key on. Provider-protocol errors pass their tokens through
// verbatim.
func errorResponse(err error) actiondto.ErrorResponse {
	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		return actiondto.ErrorResponse{
			Error:     provErr.Error(),
			ErrorType: provErr.Kind,
			APIStatus: provErr.Status,
		}
	}

	var callErr *provider.CallError
	if errors.As(err, &callErr) {
		apiStatus := "CONNECTION_ERROR"
		if callErr.Kind == provider.FailureTimeout {
			apiStatus = "TIMEOUT"
		}
		return actiondto.ErrorResponse{
			Error:     "provider unreachable",
			ErrorType: "NETWORK_ERROR",
			APIStatus: apiStatus,
		}
	}

	switch {
	case errors.Is(err, domain.ErrNoNumber):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "NO_NUMBER", APIStatus: "NO_NUMBER"}
	case errors.Is(err, domain.ErrInsufficientBalance):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "INSUFFICIENT_BALANCE", APIStatus: "NO_BALANCE"}
	case errors.Is(err, domain.ErrServerNotFound):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "SERVER_NOT_FOUND", APIStatus: "WRONG_SERVICE"}
	case errors.Is(err, domain.ErrServiceNotFound):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "SERVICE_NOT_FOUND", APIStatus: "WRONG_SERVICE"}
	case errors.Is(err, domain.ErrActivationNotFound):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "NO_ACTIVATION", APIStatus: "NO_ACTIVATION"}
	case errors.Is(err, domain.ErrActivationClosed):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "ALREADY_CANCELLED", APIStatus: "STATUS_CANCEL"}
	case errors.Is(err, domain.ErrEarlyCancelDenied):
		return actiondto.ErrorResponse{Error: err.Error(), ErrorType: "EARLY_CANCEL_DENIED", APIStatus: "EARLY_CANCEL_DENIED"}
	default:
		return actiondto.ErrorResponse{Error: "internal error", ErrorType: "INTERNAL", APIStatus: "ERROR"}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err.Error())
	}
}
