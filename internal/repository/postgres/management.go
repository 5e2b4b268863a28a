package postgres

import (
	"context"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const attendanceColumns = `id, employee_id, date, check_in, check_out, status`

type attendanceRepository struct {
	BaseRepository
}

func NewAttendanceRepository(base BaseRepository) repository.AttendanceRepository {
	return &attendanceRepository{base}
}

func (r *attendanceRepository) GetOrCreate(ctx context.Context, employeeID int64, date model.Date) (*model.Attendance, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	var a model.Attendance
	err := r.db.GetContext(ctx, &a, `
		INSERT INTO employee_attendance (employee_id, date, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (employee_id, date) DO UPDATE SET employee_id = EXCLUDED.employee_id
		RETURNING `+attendanceColumns, employeeID, date, model.AttendanceAbsent)
	if err != nil {
		return nil, wrap("get or create attendance", err)
	}
	return &a, nil
}

func (r *attendanceRepository) SetCheckIn(ctx context.Context, id int64, at model.Clock) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE employee_attendance SET check_in = $1, status = $2
		WHERE id = $3 AND check_in IS NULL
	`, at, model.AttendancePresent, id)
	if err != nil {
		return wrap("record check-in", err)
	}
	return requireRows(result, "record check-in")
}

func (r *attendanceRepository) SetCheckOut(ctx context.Context, id int64, at model.Clock) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE employee_attendance SET check_out = $1
		WHERE id = $2 AND check_out IS NULL
	`, at, id)
	if err != nil {
		return wrap("record check-out", err)
	}
	return requireRows(result, "record check-out")
}

func (r *attendanceRepository) Get(ctx context.Context, id int64) (*model.Attendance, error) {
	var a model.Attendance
	if err := r.db.GetContext(ctx, &a, `SELECT `+attendanceColumns+` FROM employee_attendance WHERE id = $1`, id); err != nil {
		return nil, wrap("get attendance", err)
	}
	return &a, nil
}

func (r *attendanceRepository) List(ctx context.Context) ([]*model.AttendanceView, error) {
	rows := []*model.AttendanceView{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.employee_id, a.date, a.check_in, a.check_out, a.status, u.username
		FROM employee_attendance a
		JOIN users u ON u.id = a.employee_id
		ORDER BY a.date DESC, u.username
	`)
	if err != nil {
		return nil, wrap("list attendance", err)
	}
	for _, row := range rows {
		row.TotalHours = row.Attendance.TotalHours()
	}
	return rows, nil
}

type servicePriceRepository struct {
	BaseRepository
}

func NewServicePriceRepository(base BaseRepository) repository.ServicePriceRepository {
	return &servicePriceRepository{base}
}

func (r *servicePriceRepository) Upsert(ctx context.Context, s *model.ServicePrice) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO service_prices (service_name, price) VALUES ($1, $2)
		ON CONFLICT (service_name) DO UPDATE SET price = EXCLUDED.price
		RETURNING id
	`, s.ServiceName, s.Price).Scan(&s.ID)
	return wrap("upsert service price", err)
}

func (r *servicePriceRepository) List(ctx context.Context) ([]*model.ServicePrice, error) {
	items := []*model.ServicePrice{}
	err := r.db.SelectContext(ctx, &items, `SELECT id, service_name, price FROM service_prices ORDER BY service_name`)
	return items, wrap("list service prices", err)
}

type messageRepository struct {
	BaseRepository
}

func NewMessageRepository(base BaseRepository) repository.MessageRepository {
	return &messageRepository{base}
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO messages (kind, sender_id, receiver_id, subject, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, timestamp
	`, m.Kind, m.SenderID, m.ReceiverID, m.Subject, m.Message).Scan(&m.ID, &m.IsRead, &m.Timestamp)
	return wrap("create message", err)
}

func (r *messageRepository) Inbox(ctx context.Context, receiverID int64, kind string) ([]*model.Message, error) {
	msgs := []*model.Message{}
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT id, kind, sender_id, receiver_id, subject, message, is_read, timestamp
		FROM messages WHERE receiver_id = $1 AND kind = $2
		ORDER BY timestamp DESC
	`, receiverID, kind)
	return msgs, wrap("list inbox", err)
}
