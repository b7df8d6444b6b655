package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/infra/payment"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

// PaymentWebhookHandler recebe a notificação do provedor e marca a demanda como paga.
type PaymentWebhookHandler struct {
	Gateway   payment.Gateway
	RequestUC *usecase.ServiceRequestUseCase
	Provider  string
	Logger    *zap.Logger
}

func NewPaymentWebhookHandler(gateway payment.Gateway, uc *usecase.ServiceRequestUseCase, provider string, logger *zap.Logger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{Gateway: gateway, RequestUC: uc, Provider: provider, Logger: logger}
}

// Handle (POST /api/payments/webhook)
func (h *PaymentWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, CodeInvalidJSON, "could not read body")
		return
	}

	event, err := h.Gateway.ParseWebhook(payload, r.Header)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidSignature):
			h.Logger.Warn("🔏 webhook signature rejected", zap.Error(err))
			middleware.RecordPayment(h.Provider, "rejected")
			writeErrorResponse(w, http.StatusBadRequest, "INVALID_SIGNATURE", "invalid signature")
		case errors.Is(err, payment.ErrWebhookNotConfigured):
			middleware.RecordIntegrationError(h.Provider)
			writeErrorResponse(w, http.StatusServiceUnavailable, "WEBHOOK_DISABLED", "webhook not configured")
		default:
			writeErrorResponse(w, http.StatusBadRequest, CodeInvalidJSON, err.Error())
		}
		return
	}

	// Eventos que não confirmam pagamento são só reconhecidos.
	if !event.Paid || event.Reference == "" {
		middleware.RecordPayment(h.Provider, "ignored")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.RequestUC.MarkPaid(r.Context(), event.Reference); err != nil {
		if usecase.IsDomainError(err) {
			// Referência desconhecida: 200 para o provedor não reenviar para sempre.
			h.Logger.Warn("⚠️ payment for unknown reference", zap.String("reference", event.Reference))
			middleware.RecordPayment(h.Provider, "unknown_reference")
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		middleware.RecordPayment(h.Provider, "error")
		writeError(w, h.Logger, err)
		return
	}

	h.Logger.Info("💳 payment confirmed",
		zap.String("reference", event.Reference),
		zap.String("session_id", event.SessionID),
	)
	middleware.RecordPayment(h.Provider, "paid")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
