package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hospital-api/internal/gateway/chapa"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository/repotest"
	"github.com/jwalitptl/hospital-api/internal/service/notification"
	apperrors "github.com/jwalitptl/hospital-api/pkg/errors"
	"github.com/jwalitptl/hospital-api/pkg/metrics"
	"github.com/jwalitptl/hospital-api/pkg/webhook"
)

const secret = "whsec_test"

type fakeGateway struct {
	initialized []*chapa.InitializeRequest
	initErr     error
	verify      *chapa.Verification
	verifyErr   error
}

func (f *fakeGateway) Initialize(_ context.Context, req *chapa.InitializeRequest) (string, error) {
	f.initialized = append(f.initialized, req)
	if f.initErr != nil {
		return "", f.initErr
	}
	return "https://checkout.chapa.test/" + req.TxRef, nil
}

func (f *fakeGateway) Verify(_ context.Context, _ string) (*chapa.Verification, error) {
	return f.verify, f.verifyErr
}

func (f *fakeGateway) CallbackURL() string { return "https://api.hospital.test/api/v1/payments/webhook" }
func (f *fakeGateway) ReturnURL() string   { return "https://hospital.test/payments/done" }

func verification(envelope, status, amount string) *chapa.Verification {
	v := &chapa.Verification{Status: envelope}
	v.Data.Status = status
	v.Data.Amount = json.Number(amount)
	return v
}

type fixture struct {
	svc     *Service
	store   *repotest.Store
	gateway *fakeGateway
	metrics *metrics.Metrics
	cashier *model.User
	patient *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repotest.NewStore()
	notifier := notification.NewService(store.Notifications(), store.Users(), store.EmailOutbox(), nil, notification.Options{})
	gw := &fakeGateway{verify: verification("success", "success", "150.00")}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(store.Invoices(), store.Users(), gw, notifier, secret, m)
	svc.newTxRef = func(id int64) string { return "invoice_fixed" }
	return &fixture{
		svc:     svc,
		store:   store,
		gateway: gw,
		metrics: m,
		cashier: store.Seed(model.RoleCashier, "cash"),
		patient: store.Seed(model.RolePatient, "pat"),
	}
}

func (f *fixture) invoice(t *testing.T, amount float64) *model.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), f.cashier, &model.CreateInvoiceRequest{PatientID: f.patient.ID, Amount: amount, Description: "consultation"})
	require.NoError(t, err)
	return inv
}

func signed(body []byte) http.Header {
	h := http.Header{}
	h.Set("X-Chapa-Signature", webhook.Sign(body, secret))
	return h
}

func appMessage(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Message
}

func TestNewTxRef(t *testing.T) {
	ref := NewTxRef(42)
	assert.Regexp(t, `^invoice_42_[0-9a-f]{8}$`, ref)
	assert.NotEqual(t, ref, NewTxRef(42))
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	inv := f.invoice(t, 99.999)
	assert.Equal(t, 100.0, inv.Amount)
	assert.Equal(t, model.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "pat", inv.PatientUsername)

	notes := f.store.NotificationsFor(f.patient.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "A new invoice of $100.00 has been generated for you.", notes[0].Message)

	_, err := f.svc.Create(context.Background(), f.patient, &model.CreateInvoiceRequest{PatientID: f.patient.ID, Amount: 1})
	assert.Equal(t, "Only cashiers can create invoices", appMessage(t, err))

	_, err = f.svc.Create(context.Background(), f.cashier, &model.CreateInvoiceRequest{PatientID: f.cashier.ID, Amount: 1})
	assert.Equal(t, "Patient not found", appMessage(t, err))
}

func TestPay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.invoice(t, 150)

	link, err := f.svc.Pay(ctx, f.patient, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice_fixed", link.TxRef)
	assert.Equal(t, "https://checkout.chapa.test/invoice_fixed", link.PaymentURL)

	require.Len(t, f.gateway.initialized, 1)
	req := f.gateway.initialized[0]
	assert.Equal(t, "150.00", req.Amount)
	assert.Equal(t, chapa.CurrencyETB, req.Currency)
	assert.Equal(t, f.patient.Email, req.Email)
	assert.Equal(t, "https://api.hospital.test/api/v1/payments/webhook", req.CallbackURL)

	stored, err := f.store.Invoices().Get(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PaymentURL)
	require.NotNil(t, stored.TxRef)
	assert.Equal(t, "invoice_fixed", *stored.TxRef)

	t.Run("gateway failure", func(t *testing.T) {
		f.gateway.initErr = chapa.ErrRejected
		defer func() { f.gateway.initErr = nil }()
		_, err := f.svc.Pay(ctx, f.patient, inv.ID)
		assert.Equal(t, "Failed to generate payment link.", appMessage(t, err))
	})

	t.Run("not pending", func(t *testing.T) {
		f.store.SetInvoiceStatus(inv.ID, model.InvoiceStatusPaid)
		_, err := f.svc.Pay(ctx, f.patient, inv.ID)
		assert.Equal(t, "Invoice not found", appMessage(t, err))
	})
}

func TestListings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice(t, 10)
	f.invoice(t, 20)

	mine, err := f.svc.ListForPatient(ctx, f.patient)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.ListForPatient(ctx, f.cashier)
	assert.True(t, apperrors.Is(err, apperrors.ErrRoleDenied))

	logs, err := f.svc.Logs(ctx, f.cashier)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	_, err = f.svc.Logs(ctx, f.patient)
	assert.True(t, apperrors.Is(err, apperrors.ErrRoleDenied))
}

func TestHandleWebhookAppliesPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.invoice(t, 150)
	_, err := f.svc.Pay(ctx, f.patient, inv.ID)
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","status":"success","tx_ref":"invoice_fixed"}`)
	res, err := f.svc.HandleWebhook(ctx, signed(body), body)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, "Payment confirmed", res.Message)

	stored, err := f.store.Invoices().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, stored.Status)
	assert.Equal(t, 0.0, stored.Amount)

	notes := f.store.NotificationsFor(f.patient.ID)
	assert.Equal(t, "Your payment of $150.00 has been received.", notes[len(notes)-1].Message)

	// a replayed callback is acknowledged without notifying again
	res, err = f.svc.HandleWebhook(ctx, signed(body), body)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Len(t, f.store.NotificationsFor(f.patient.ID), len(notes))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.WebhookEvents.WithLabelValues("already_paid")))
}

func TestHandleWebhookPartialPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inv := f.invoice(t, 200)
	_, err := f.svc.Pay(ctx, f.patient, inv.ID)
	require.NoError(t, err)

	body := []byte(`{"event":"charge.success","status":"success","tx_ref":"invoice_fixed"}`)
	_, err = f.svc.HandleWebhook(ctx, signed(body), body)
	require.NoError(t, err)

	stored, err := f.store.Invoices().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPending, stored.Status)
	assert.Equal(t, 50.0, stored.Amount)
}

func TestHandleWebhookRejections(t *testing.T) {
	ctx := context.Background()
	good := []byte(`{"event":"charge.success","status":"success","tx_ref":"invoice_fixed"}`)

	tests := []struct {
		name    string
		headers func(body []byte) http.Header
		body    []byte
		gateway *fakeGateway
		code    apperrors.ErrorCode
		msg     string
	}{
		{
			name:    "missing signature",
			headers: func([]byte) http.Header { return http.Header{} },
			body:    good,
			code:    apperrors.ErrUnauthorized,
			msg:     "Missing signature",
		},
		{
			name: "invalid signature",
			headers: func(body []byte) http.Header {
				h := http.Header{}
				h.Set("Chapa-Signature", webhook.Sign(body, "other"))
				return h
			},
			body: good,
			code: apperrors.ErrUnauthorized,
			msg:  "Invalid signature",
		},
		{
			name:    "bad payload",
			headers: signed,
			body:    []byte(`{not json`),
			code:    apperrors.ErrBadRequest,
			msg:     "Invalid payload",
		},
		{
			name:    "verify error",
			headers: signed,
			body:    good,
			gateway: &fakeGateway{verifyErr: errors.New("dial tcp: timeout")},
			code:    apperrors.ErrBadRequest,
			msg:     "Payment verification failed",
		},
		{
			name:    "verify envelope failed",
			headers: signed,
			body:    good,
			gateway: &fakeGateway{verify: verification("failed", "success", "10")},
			code:    apperrors.ErrBadRequest,
			msg:     "Payment verification failed",
		},
		{
			name:    "transaction failed",
			headers: signed,
			body:    good,
			gateway: &fakeGateway{verify: verification("success", "failed", "10")},
			code:    apperrors.ErrBadRequest,
			msg:     "Transaction not successful or missing amount",
		},
		{
			name:    "missing amount",
			headers: signed,
			body:    good,
			gateway: &fakeGateway{verify: verification("success", "success", "")},
			code:    apperrors.ErrBadRequest,
			msg:     "Transaction not successful or missing amount",
		},
		{
			name:    "garbage amount",
			headers: signed,
			body:    good,
			gateway: &fakeGateway{verify: verification("success", "success", "ten")},
			code:    apperrors.ErrBadRequest,
			msg:     "Invalid amount received from Chapa",
		},
		{
			name:    "unknown tx_ref",
			headers: signed,
			body:    []byte(`{"event":"charge.success","status":"success","tx_ref":"invoice_nope"}`),
			code:    apperrors.ErrNotFound,
			msg:     "Invoice not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.gateway != nil {
				f.svc.gateway = tt.gateway
			}
			_, err := f.svc.HandleWebhook(ctx, tt.headers(tt.body), tt.body)
			appErr, ok := apperrors.As(err)
			require.True(t, ok, "expected AppError, got %v", err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.msg, appErr.Message)
		})
	}
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"event":"charge.refunded","status":"success","tx_ref":"x"}`)
	res, err := f.svc.HandleWebhook(context.Background(), signed(body), body)
	require.NoError(t, err)
	assert.Equal(t, "ignored", res.Status)
	assert.Equal(t, "non-success event", res.Reason)
}

func TestHandleWebhookWithoutSecret(t *testing.T) {
	f := newFixture(t)
	f.svc.webhookSecret = ""
	_, err := f.svc.HandleWebhook(context.Background(), http.Header{}, []byte(`{}`))
	assert.Equal(t, "Invalid signature", appMessage(t, err))
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.invoice(t, 100.10)
	second := f.invoice(t, 49.90)

	_, err := f.svc.Approve(ctx, f.patient, f.patient.ID, 150)
	assert.Equal(t, "Only cashiers can approve payments", appMessage(t, err))

	_, err = f.svc.Approve(ctx, f.cashier, f.patient.ID, 149)
	assert.Equal(t, "The provided amount (149.00) does not match the total paid invoices amount ($150.00)", appMessage(t, err))

	res, err := f.svc.Approve(ctx, f.cashier, f.patient.ID, 150)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ApprovedInvoices)
	assert.Equal(t, 150.0, res.Total)
	assert.Equal(t, fmt.Sprintf("Payment for user %d approved. Total amount: $150.00", f.patient.ID), res.Message)

	for _, id := range []int64{first.ID, second.ID} {
		inv, err := f.store.Invoices().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.InvoiceStatusApproved, inv.Status)
	}

	notes := f.store.NotificationsFor(f.patient.ID)
	assert.Equal(t, "Your total payment of $150.00 has been approved.", notes[len(notes)-1].Message)

	_, err = f.svc.Approve(ctx, f.cashier, f.patient.ID, 150)
	assert.Equal(t, "No paid invoices found for this user", appMessage(t, err))
}
