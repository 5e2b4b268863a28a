package repotest

import (
	"context"
	"sort"
	"time"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

// collect copies the values of m that match keep, newest id first.
func collect[T any](m map[int64]*T, id func(*T) int64, keep func(*T) bool) []*T {
	out := []*T{}
	for _, v := range m {
		if keep(v) {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return id(out[i]) > id(out[j]) })
	return out
}

func get[T any](m map[int64]*T, id int64) (*T, error) {
	v, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// appointments

type appointmentRepo Store

func apptID(a *model.Appointment) int64 { return a.ID }

func (r *appointmentRepo) Create(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a.ID = (*Store)(r).id()
	a.CreatedAt, a.UpdatedAt = r.now(), r.now()
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *appointmentRepo) Get(_ context.Context, id int64) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.appointments, id)
}

func (r *appointmentRepo) Update(_ context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return repository.ErrNotFound
	}
	a.UpdatedAt = r.now()
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *appointmentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *appointmentRepo) ListByPatient(_ context.Context, patientID int64) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.appointments, apptID, func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *appointmentRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.appointments, apptID, func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *appointmentRepo) Count(_ context.Context, doctorID *int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(collect(r.appointments, apptID, func(a *model.Appointment) bool {
		return doctorID == nil || a.DoctorID == *doctorID
	})), nil
}

// lab tests

type labRepo Store

func labID(t *model.LabTest) int64 { return t.ID }

func (r *labRepo) Create(_ context.Context, t *model.LabTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = (*Store)(r).id()
	t.OrderedAt, t.UpdatedAt = r.now(), r.now()
	cp := *t
	r.labTests[t.ID] = &cp
	return nil
}

func (r *labRepo) Get(_ context.Context, id int64) (*model.LabTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.labTests, id)
}

func (r *labRepo) Update(_ context.Context, t *model.LabTest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.labTests[t.ID]; !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = r.now()
	cp := *t
	r.labTests[t.ID] = &cp
	return nil
}

func (r *labRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*model.LabTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.labTests, labID, func(t *model.LabTest) bool { return t.DoctorID == doctorID }), nil
}

func (r *labRepo) ListByPatient(_ context.Context, patientID int64) ([]*model.LabTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.labTests, labID, func(t *model.LabTest) bool { return t.PatientID == patientID }), nil
}

func (r *labRepo) ListAll(_ context.Context) ([]*model.LabTest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.labTests, labID, func(*model.LabTest) bool { return true }), nil
}

func (r *labRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.labTests), nil
}

// prescriptions

type prescriptionRepo Store

func rxID(p *model.Prescription) int64 { return p.ID }

func (r *prescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = (*Store)(r).id()
	p.PrescribedAt, p.UpdatedAt = r.now(), r.now()
	cp := *p
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *prescriptionRepo) Get(_ context.Context, id int64) (*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.prescriptions, id)
}

func (r *prescriptionRepo) Update(_ context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = r.now()
	cp := *p
	r.prescriptions[p.ID] = &cp
	return nil
}

func (r *prescriptionRepo) ListByDoctor(_ context.Context, doctorID int64) ([]*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.prescriptions, rxID, func(p *model.Prescription) bool { return p.DoctorID == doctorID }), nil
}

func (r *prescriptionRepo) ListByPatient(_ context.Context, patientID int64) ([]*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.prescriptions, rxID, func(p *model.Prescription) bool { return p.PatientID == patientID }), nil
}

func (r *prescriptionRepo) ListAll(_ context.Context) ([]*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.prescriptions, rxID, func(*model.Prescription) bool { return true }), nil
}

func (r *prescriptionRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prescriptions), nil
}

// drugs

type drugRepo Store

func drugID(d *model.Drug) int64 { return d.ID }

func (r *drugRepo) nameTaken(name string, except int64) bool {
	for id, d := range r.drugs {
		if d.Name == name && id != except {
			return true
		}
	}
	return false
}

func (r *drugRepo) Create(_ context.Context, d *model.Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(d.Name, 0) {
		return repository.ErrDuplicate
	}
	d.ID = (*Store)(r).id()
	d.CreatedAt, d.UpdatedAt = r.now(), r.now()
	cp := *d
	r.drugs[d.ID] = &cp
	return nil
}

func (r *drugRepo) Get(_ context.Context, id int64) (*model.Drug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.drugs, id)
}

func (r *drugRepo) Update(_ context.Context, d *model.Drug) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drugs[d.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(d.Name, d.ID) {
		return repository.ErrDuplicate
	}
	d.UpdatedAt = r.now()
	cp := *d
	r.drugs[d.ID] = &cp
	return nil
}

func (r *drugRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drugs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.drugs, id)
	return nil
}

func (r *drugRepo) byName(keep func(*model.Drug) bool) []*model.Drug {
	out := collect(r.drugs, drugID, keep)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *drugRepo) List(_ context.Context) ([]*model.Drug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName(func(*model.Drug) bool { return true }), nil
}

func (r *drugRepo) SearchByName(_ context.Context, name string) ([]*model.Drug, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byName(func(d *model.Drug) bool { return containsFold(d.Name, name) }), nil
}

// invoices

type invoiceRepo Store

func invID(i *model.Invoice) int64 { return i.ID }

func (r *invoiceRepo) withUsername(inv *model.Invoice) *model.Invoice {
	if u, ok := r.users[inv.PatientID]; ok {
		inv.PatientUsername = u.Username
	}
	return inv
}

func (r *invoiceRepo) Create(_ context.Context, inv *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv.ID = (*Store)(r).id()
	inv.CreatedAt, inv.UpdatedAt = r.now(), r.now()
	cp := *inv
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *invoiceRepo) Get(_ context.Context, id int64) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, err := get(r.invoices, id)
	if err != nil {
		return nil, err
	}
	return r.withUsername(inv), nil
}

func (r *invoiceRepo) GetPending(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvoiceStatusPending {
		return nil, repository.ErrNotFound
	}
	return inv, nil
}

func (r *invoiceRepo) GetByTxRef(_ context.Context, txRef string) (*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.TxRef != nil && *inv.TxRef == txRef {
			cp := *inv
			return r.withUsername(&cp), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *invoiceRepo) SetTxRef(_ context.Context, id int64, txRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	inv.TxRef = &txRef
	return nil
}

func (r *invoiceRepo) SetPaymentURL(_ context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return repository.ErrNotFound
	}
	inv.PaymentURL = &url
	return nil
}

func (r *invoiceRepo) ApplyPayment(_ context.Context, id int64, paid float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.Status == model.InvoiceStatusPaid {
		return false, nil
	}
	remaining := model.RoundCents(inv.Amount - paid)
	if remaining <= 0 {
		inv.Amount = 0
		inv.Status = model.InvoiceStatusPaid
	} else {
		inv.Amount = remaining
	}
	return true, nil
}

func (r *invoiceRepo) list(keep func(*model.Invoice) bool) []*model.Invoice {
	out := collect(r.invoices, invID, keep)
	for _, inv := range out {
		r.withUsername(inv)
	}
	return out
}

func (r *invoiceRepo) ListByPatient(_ context.Context, patientID int64) ([]*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(i *model.Invoice) bool { return i.PatientID == patientID }), nil
}

func (r *invoiceRepo) ListAll(_ context.Context) ([]*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(*model.Invoice) bool { return true }), nil
}

func (r *invoiceRepo) ListByPatientAndStatus(_ context.Context, patientID int64, status string) ([]*model.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list(func(i *model.Invoice) bool { return i.PatientID == patientID && i.Status == status }), nil
}

func (r *invoiceRepo) UpdateStatus(_ context.Context, ids []int64, from, to string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if inv, ok := r.invoices[id]; ok && inv.Status == from {
			inv.Status = to
			n++
		}
	}
	return n, nil
}

func (r *invoiceRepo) SumByStatus(_ context.Context, status string, start, end time.Time) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total float64
	for _, inv := range r.invoices {
		if inv.Status == status && !inv.CreatedAt.Before(start) && inv.CreatedAt.Before(end) {
			total += inv.Amount
		}
	}
	return model.RoundCents(total), nil
}

// SetInvoiceStatus overrides an invoice's status for test setup.
func (s *Store) SetInvoiceStatus(id int64, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[id]; ok {
		inv.Status = status
	}
}

// notifications

type notificationRepo Store

func notifID(n *model.Notification) int64 { return n.ID }

func (r *notificationRepo) Create(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = (*Store)(r).id()
	n.CreatedAt = r.now()
	cp := *n
	r.notifications[n.ID] = &cp
	return nil
}

func (r *notificationRepo) ListByRecipient(_ context.Context, recipientID int64, status string) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.notifications, notifID, func(n *model.Notification) bool {
		return n.RecipientID == recipientID && (status == "" || n.Status == status)
	}), nil
}

func (r *notificationRepo) MarkRead(_ context.Context, id, recipientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	n.Status = model.NotificationStatusRead
	return nil
}

func (r *notificationRepo) MarkAllRead(_ context.Context, recipientID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Status == model.NotificationStatusUnread {
			n.Status = model.NotificationStatusRead
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) Delete(_ context.Context, id, recipientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repository.ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *notificationRepo) CountUnread(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.notifications {
		if n.Status == model.NotificationStatusUnread {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) DeleteOlderThan(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, n := range r.notifications {
		if n.CreatedAt.Before(before) {
			delete(r.notifications, id)
			count++
		}
	}
	return count, nil
}

// chat

type chatRepo Store

func (r *chatRepo) Create(_ context.Context, m *model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = (*Store)(r).id()
	if m.Timestamp.IsZero() {
		m.Timestamp = r.now()
	}
	cp := *m
	r.chat = append(r.chat, &cp)
	return nil
}

func (r *chatRepo) Conversation(_ context.Context, a, b int64) ([]*model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.ChatMessage{}
	for _, m := range r.chat {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// patient comments

type commentRepo Store

func (r *commentRepo) Create(_ context.Context, c *model.PatientComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = (*Store)(r).id()
	c.CreatedAt = r.now()
	cp := *c
	r.comments = append(r.comments, &cp)
	return nil
}

func (r *commentRepo) List(_ context.Context) ([]*model.PatientComment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.PatientComment{}
	for i := len(r.comments) - 1; i >= 0; i-- {
		cp := *r.comments[i]
		out = append(out, &cp)
	}
	return out, nil
}

// referrals

type referralRepo Store

func refID(r *model.Referral) int64 { return r.ID }

func (r *referralRepo) Create(_ context.Context, ref *model.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref.ID = (*Store)(r).id()
	ref.CreatedAt, ref.UpdatedAt = r.now(), r.now()
	cp := *ref
	r.referrals[ref.ID] = &cp
	return nil
}

func (r *referralRepo) Get(_ context.Context, id int64) (*model.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.referrals, id)
}

func (r *referralRepo) UpdateStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.referrals[id]
	if !ok {
		return repository.ErrNotFound
	}
	ref.Status = status
	ref.UpdatedAt = r.now()
	return nil
}

func (r *referralRepo) ListForDoctor(_ context.Context, doctorID int64) ([]*model.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.referrals, refID, func(ref *model.Referral) bool {
		return ref.ReferringDoctorID == doctorID || ref.ReferredDoctorID == doctorID
	}), nil
}

func (r *referralRepo) ListForPatient(_ context.Context, patientID int64) ([]*model.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return collect(r.referrals, refID, func(ref *model.Referral) bool { return ref.PatientID == patientID }), nil
}

// attendance

type attendanceRepo Store

func (r *attendanceRepo) GetOrCreate(_ context.Context, employeeID int64, date model.Date) (*model.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attendance {
		if a.EmployeeID == employeeID && a.Date.Equal(date.Time) {
			cp := *a
			return &cp, nil
		}
	}
	a := &model.Attendance{ID: (*Store)(r).id(), EmployeeID: employeeID, Date: date, Status: model.AttendanceAbsent}
	r.attendance[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *attendanceRepo) SetCheckIn(_ context.Context, id int64, at model.Clock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attendance[id]
	if !ok || a.CheckIn != nil {
		return repository.ErrNotFound
	}
	a.CheckIn = &at
	a.Status = model.AttendancePresent
	return nil
}

func (r *attendanceRepo) SetCheckOut(_ context.Context, id int64, at model.Clock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attendance[id]
	if !ok || a.CheckOut != nil {
		return repository.ErrNotFound
	}
	a.CheckOut = &at
	return nil
}

func (r *attendanceRepo) Get(_ context.Context, id int64) (*model.Attendance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.attendance, id)
}

func (r *attendanceRepo) List(_ context.Context) ([]*model.AttendanceView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.AttendanceView{}
	for _, a := range collect(r.attendance, func(a *model.Attendance) int64 { return a.ID }, func(*model.Attendance) bool { return true }) {
		v := &model.AttendanceView{Attendance: *a, TotalHours: a.TotalHours()}
		if u, ok := r.users[a.EmployeeID]; ok {
			v.Username = u.Username
		}
		out = append(out, v)
	}
	return out, nil
}

// service prices

type serviceRepo Store

func (r *serviceRepo) Upsert(_ context.Context, sp *model.ServicePrice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.services[sp.ServiceName]; ok {
		existing.Price = sp.Price
		sp.ID = existing.ID
		return nil
	}
	sp.ID = (*Store)(r).id()
	cp := *sp
	r.services[sp.ServiceName] = &cp
	return nil
}

func (r *serviceRepo) List(_ context.Context) ([]*model.ServicePrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.ServicePrice{}
	for _, sp := range r.services {
		cp := *sp
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out, nil
}

// staff messages

type messageRepo Store

func (r *messageRepo) Create(_ context.Context, m *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = (*Store)(r).id()
	m.Timestamp = r.now()
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *messageRepo) Inbox(_ context.Context, receiverID int64, kind string) ([]*model.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Message{}
	for i := len(r.messages) - 1; i >= 0; i-- {
		m := r.messages[i]
		if m.ReceiverID == receiverID && (kind == "" || m.Kind == kind) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

// email outbox

type emailRepo Store

func (r *emailRepo) Enqueue(_ context.Context, e *model.EmailOutbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = (*Store)(r).id()
	e.CreatedAt = r.now()
	if e.Status == "" {
		e.Status = model.EmailStatusPending
	}
	cp := *e
	r.emails[e.ID] = &cp
	return nil
}

func (r *emailRepo) ClaimPending(ctx context.Context, limit int, fn func(context.Context, []*model.EmailOutbox, repository.MarkFunc) error) error {
	r.mu.Lock()
	now := r.now()
	due := collect(r.emails, func(e *model.EmailOutbox) int64 { return -e.ID }, func(e *model.EmailOutbox) bool {
		switch e.Status {
		case model.EmailStatusPending:
			return true
		case model.EmailStatusRetry:
			return e.NextRetryAt == nil || !e.NextRetryAt.After(now)
		}
		return false
	})
	r.mu.Unlock()
	if len(due) == 0 {
		return nil
	}
	if len(due) > limit {
		due = due[:limit]
	}

	mark := func(id int64, status model.EmailStatus, lastErr *string, nextRetry *time.Time) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		e, ok := r.emails[id]
		if !ok {
			return repository.ErrNotFound
		}
		e.Status = status
		e.Attempts++
		e.LastError = lastErr
		e.NextRetryAt = nextRetry
		if status == model.EmailStatusSent {
			sent := r.now()
			e.SentAt = &sent
		}
		return nil
	}
	return fn(ctx, due, mark)
}

func (r *emailRepo) DeleteSentBefore(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, e := range r.emails {
		if e.Status == model.EmailStatusSent && e.SentAt != nil && e.SentAt.Before(before) {
			delete(r.emails, id)
			n++
		}
	}
	return n, nil
}
