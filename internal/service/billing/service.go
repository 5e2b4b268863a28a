package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/internal/gateway/chapa"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/webhook"
)

const (
	eventChargeSuccess = "charge.success"
	paymentTitle       = "Hospital Payment"
)

// SignatureHeaders are checked in order for the webhook HMAC.
var SignatureHeaders = []string{"Chapa-Signature", "X-Chapa-Signature"}

// WebhookResult is the body returned to the gateway.
type WebhookResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// ApproveResult summarises a cashier approval.
type ApproveResult struct {
	Message string
	model.ApprovePaymentResponse
}

type Service struct {
	invoices      repository.InvoiceRepository
	users         repository.UserRepository
	gateway       chapa.Gateway
	notifier      notification.Notifier
	webhookSecret string
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	newTxRef      func(invoiceID int64) string
}

func NewService(invoices repository.InvoiceRepository, users repository.UserRepository, gateway chapa.Gateway,
	notifier notification.Notifier, webhookSecret string, m *metrics.Metrics) *Service {
	return &Service{
		invoices:      invoices,
		users:         users,
		gateway:       gateway,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		metrics:       m,
		logger:        log.With().Str("component", "billing").Logger(),
		newTxRef:      NewTxRef,
	}
}

// NewTxRef returns invoice_{id}_{8 hex chars}.
func NewTxRef(invoiceID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("invoice_%d_%s", invoiceID, suffix)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func (s *Service) Create(ctx context.Context, actor *model.User, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	if actor.Role != model.RoleCashier {
		return nil, apperrors.RoleDenied("Only cashiers can create invoices")
	}
	patient, err := service.RequireUser(ctx, s.users, req.PatientID, model.RolePatient, "Patient")
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		PatientID:   patient.ID,
		Amount:      model.RoundCents(req.Amount),
		Description: req.Description,
		Status:      model.InvoiceStatusPending,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, apperrors.Internal(err)
	}
	inv.PatientUsername = patient.Username

	s.notify(ctx, patient, fmt.Sprintf("A new invoice of $%s has been generated for you.", money(inv.Amount)))
	return inv, nil
}

// Pay opens a gateway checkout for a pending invoice.
func (s *Service) Pay(ctx context.Context, actor *model.User, invoiceID int64) (*model.PaymentLinkResponse, error) {
	inv, err := s.invoices.GetPending(ctx, invoiceID)
	if err != nil {
		return nil, service.MapNotFound(err, "Invoice")
	}
	patient, err := s.users.Get(ctx, inv.PatientID)
	if err != nil {
		return nil, service.MapNotFound(err, "Patient")
	}

	txRef := s.newTxRef(inv.ID)
	if err := s.invoices.SetTxRef(ctx, inv.ID, txRef); err != nil {
		return nil, service.MapNotFound(err, "Invoice")
	}

	checkoutURL, err := s.gateway.Initialize(ctx, &chapa.InitializeRequest{
		Amount:      money(inv.Amount),
		Currency:    chapa.CurrencyETB,
		Email:       patient.Email,
		FirstName:   patient.FirstName,
		LastName:    patient.LastName,
		TxRef:       txRef,
		CallbackURL: s.gateway.CallbackURL(),
		ReturnURL:   s.gateway.ReturnURL(),
		Customization: chapa.Customization{
			Title:       paymentTitle,
			Description: inv.Description,
		},
	})
	if err != nil {
		s.logger.Warn().Err(err).Int64("invoice_id", inv.ID).Int64("actor_id", actor.ID).Msg("payment link generation failed")
		return nil, apperrors.BadRequest("Failed to generate payment link.", err)
	}

	if err := s.invoices.SetPaymentURL(ctx, inv.ID, checkoutURL); err != nil {
		return nil, service.MapNotFound(err, "Invoice")
	}
	return &model.PaymentLinkResponse{PaymentURL: checkoutURL, TxRef: txRef}, nil
}

func (s *Service) ListForPatient(ctx context.Context, actor *model.User) ([]*model.Invoice, error) {
	if actor.Role != model.RolePatient {
		return nil, apperrors.RoleDenied("Only patients can view their invoices")
	}
	items, err := s.invoices.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

func (s *Service) Logs(ctx context.Context, actor *model.User) ([]*model.Invoice, error) {
	if actor.Role != model.RoleCashier {
		return nil, apperrors.RoleDenied("Only cashiers can view invoice logs")
	}
	items, err := s.invoices.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return items, nil
}

// HandleWebhook authenticates a gateway callback, re-verifies the
// transaction with the gateway and applies the payment to its invoice.
func (s *Service) HandleWebhook(ctx context.Context, headers http.Header, body []byte) (*WebhookResult, error) {
	if s.webhookSecret == "" {
		s.logger.Error().Msg("webhook secret not configured, rejecting callback")
		s.outcome("invalid_signature")
		return nil, apperrors.Unauthorized("Invalid signature", nil)
	}
	if err := webhook.VerifyHeaders(headers, body, s.webhookSecret, SignatureHeaders...); err != nil {
		if errors.Is(err, webhook.ErrMissingSignature) {
			s.outcome("missing_signature")
			return nil, apperrors.Unauthorized("Missing signature", err)
		}
		s.outcome("invalid_signature")
		return nil, apperrors.Unauthorized("Invalid signature", err)
	}

	var event model.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.outcome("bad_payload")
		return nil, apperrors.BadRequest("Invalid payload", err)
	}
	if event.Event != eventChargeSuccess || event.Status != chapa.StatusSuccess {
		s.outcome("ignored")
		return &WebhookResult{Status: "ignored", Reason: "non-success event"}, nil
	}

	verification, err := s.gateway.Verify(ctx, event.TxRef)
	if err != nil {
		s.logger.Warn().Err(err).Str("tx_ref", event.TxRef).Msg("payment verification request failed")
		s.outcome("verification_failed")
		return nil, apperrors.BadRequest("Payment verification failed", err)
	}
	if verification.Status != chapa.StatusSuccess {
		s.outcome("verification_failed")
		return nil, apperrors.BadRequest("Payment verification failed", nil)
	}
	if !verification.Successful() || verification.Data.Amount == "" {
		s.outcome("verification_failed")
		return nil, apperrors.BadRequest("Transaction not successful or missing amount", nil)
	}
	paid, err := verification.PaidAmount()
	if err != nil {
		s.outcome("verification_failed")
		return nil, apperrors.BadRequest("Invalid amount received from Chapa", err)
	}

	inv, err := s.invoices.GetByTxRef(ctx, event.TxRef)
	if err != nil {
		s.outcome("not_found")
		return nil, service.MapNotFound(err, "Invoice")
	}

	applied, err := s.invoices.ApplyPayment(ctx, inv.ID, paid)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !applied {
		s.outcome("already_paid")
		return &WebhookResult{Status: "success", Message: "Payment confirmed"}, nil
	}
	s.outcome("applied")

	if patient, err := s.users.Get(ctx, inv.PatientID); err == nil {
		s.notify(ctx, patient, fmt.Sprintf("Your payment of $%s has been received.", money(paid)))
	} else {
		s.logger.Warn().Err(err).Int64("invoice_id", inv.ID).Msg("invoice patient not found")
	}
	return &WebhookResult{Status: "success", Message: "Payment confirmed"}, nil
}

// Approve confirms that amount settles every pending invoice of the patient.
func (s *Service) Approve(ctx context.Context, actor *model.User, patientID int64, amount float64) (*ApproveResult, error) {
	if actor.Role != model.RoleCashier {
		return nil, apperrors.RoleDenied("Only cashiers can approve payments")
	}
	invoices, err := s.invoices.ListByPatientAndStatus(ctx, patientID, model.InvoiceStatusPending)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(invoices) == 0 {
		return nil, apperrors.BadRequest("No paid invoices found for this user", nil)
	}

	var total float64
	ids := make([]int64, 0, len(invoices))
	for _, inv := range invoices {
		total += inv.Amount
		ids = append(ids, inv.ID)
	}
	total = model.RoundCents(total)
	if model.RoundCents(amount) != total {
		return nil, apperrors.BadRequest(fmt.Sprintf(
			"The provided amount (%s) does not match the total paid invoices amount ($%s)", money(amount), money(total)), nil)
	}

	approved, err := s.invoices.UpdateStatus(ctx, ids, model.InvoiceStatusPending, model.InvoiceStatusApproved)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if patient, err := s.users.Get(ctx, patientID); err == nil {
		s.notify(ctx, patient, fmt.Sprintf("Your total payment of $%s has been approved.", money(total)))
	} else {
		s.logger.Warn().Err(err).Int64("patient_id", patientID).Msg("approved patient not found")
	}

	return &ApproveResult{
		Message: fmt.Sprintf("Payment for user %d approved. Total amount: $%s", patientID, money(total)),
		ApprovePaymentResponse: model.ApprovePaymentResponse{
			ApprovedInvoices: int(approved),
			Total:            total,
		},
	}, nil
}

func (s *Service) notify(ctx context.Context, recipient *model.User, message string) {
	if err := s.notifier.Notify(ctx, recipient, message); err != nil {
		s.logger.Warn().Err(err).Int64("recipient_id", recipient.ID).Msg("failed to send billing notification")
	}
}

func (s *Service) outcome(label string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(label).Inc()
	}
}
