package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
)

const userColumns = `id, username, password_hash, email, first_name, middle_name, last_name, role,
	phone_number, address, gender, date_of_birth, ssn, profile_picture, is_active,
	last_login_at, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query := `
		INSERT INTO users (
			username, password_hash, email, first_name, middle_name, last_name, role,
			phone_number, address, gender, date_of_birth, ssn, profile_picture, is_active
		) VALUES (
			:username, :password_hash, :email, :first_name, :middle_name, :last_name, :role,
			:phone_number, :address, :gender, :date_of_birth, :ssn, :profile_picture, :is_active
		)
		RETURNING id, created_at, updated_at
	`
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return wrap("prepare user insert", err)
	}
	defer stmt.Close()

	return wrap("create user", stmt.QueryRowxContext(ctx, user).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt))
}

func (r *userRepository) CreatePatient(ctx context.Context, user *model.User, profile *model.PatientProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO patient_profiles (user_id, region, town, kebele, house_number, room_number)
			VALUES (:user_id, :region, :town, :kebele, :house_number, :room_number)
		`, profile)
		return wrap("create patient profile", err)
	})
}

func (r *userRepository) CreateDoctor(ctx context.Context, user *model.User, profile *model.DoctorProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO doctor_profiles (user_id, ssn, department, level)
			VALUES (:user_id, :ssn, :department, :level)
		`, profile)
		return wrap("create doctor profile", err)
	})
}

func (r *userRepository) CreateEmployee(ctx context.Context, user *model.User, profile *model.EmployeeProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertUser(ctx, tx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO employee_profiles (user_id, ssn) VALUES (:user_id, :ssn)
		`, profile)
		return wrap("create employee profile", err)
	})
}

func (r *userRepository) CreateManager(ctx context.Context, user *model.User) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, user)
	})
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE username = $1`, username); err != nil {
		return nil, wrap("get user by username", err)
	}
	return &user, nil
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
	return exists, wrap("check username", err)
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return updateUser(ctx, r.db, user)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, id)
	return wrap("update last login", err)
}

func (r *userRepository) ActivatePatient(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET is_active = TRUE, updated_at = NOW()
		WHERE id = $1 AND role = $2 AND is_active = FALSE
	`, id, model.RolePatient)
	if err != nil {
		return wrap("activate patient", err)
	}
	return requireRows(result, "activate patient")
}

func (r *userRepository) ListByRole(ctx context.Context, role string) ([]*model.User, error) {
	users := []*model.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, role)
	return users, wrap("list users by role", err)
}

func (r *userRepository) ListPendingPatients(ctx context.Context) ([]*model.PendingPatient, error) {
	query := `
		SELECT u.id, u.username, u.email, u.first_name, u.last_name,
			p.region, p.town, p.kebele, p.house_number, u.created_at
		FROM users u
		JOIN patient_profiles p ON p.user_id = u.id
		WHERE u.role = $1 AND u.is_active = FALSE
		ORDER BY u.created_at
	`
	patients := []*model.PendingPatient{}
	err := r.db.SelectContext(ctx, &patients, query, model.RolePatient)
	return patients, wrap("list pending patients", err)
}

func (r *userRepository) ListDoctors(ctx context.Context) ([]*model.DoctorSummary, error) {
	query := `
		SELECT u.id, u.username, u.first_name, u.last_name, u.email,
			COALESCE(d.department, '') AS department, COALESCE(d.level, '') AS level
		FROM users u
		LEFT JOIN doctor_profiles d ON d.user_id = u.id
		WHERE u.role = $1 AND u.is_active = TRUE
		ORDER BY u.last_name, u.first_name
	`
	doctors := []*model.DoctorSummary{}
	err := r.db.SelectContext(ctx, &doctors, query, model.RoleDoctor)
	return doctors, wrap("list doctors", err)
}

func (r *userRepository) ListEmployees(ctx context.Context, role string) ([]*model.Employee, error) {
	employees := []*model.Employee{}
	err := r.db.SelectContext(ctx, &employees, `
		SELECT id, username, first_name, last_name, email, role, is_active
		FROM users WHERE role = $1 ORDER BY id
	`, role)
	return employees, wrap("list employees", err)
}

func (r *userRepository) CountActivePatients(ctx context.Context) (int, error) {
	return r.count(ctx, "count active patients",
		`SELECT COUNT(*) FROM users WHERE role = $1 AND is_active = TRUE`, model.RolePatient)
}

func (r *userRepository) CountEmployees(ctx context.Context) (int, error) {
	return r.count(ctx, "count employees",
		`SELECT COUNT(*) FROM users WHERE role <> $1`, model.RolePatient)
}

func (r *userRepository) GetDoctorProfile(ctx context.Context, userID int64) (*model.DoctorProfile, error) {
	var p model.DoctorProfile
	if err := r.db.GetContext(ctx, &p, `SELECT user_id, ssn, department, level FROM doctor_profiles WHERE user_id = $1`, userID); err != nil {
		return nil, wrap("get doctor profile", err)
	}
	return &p, nil
}

func (r *userRepository) GetEmployeeProfile(ctx context.Context, userID int64) (*model.EmployeeProfile, error) {
	var p model.EmployeeProfile
	if err := r.db.GetContext(ctx, &p, `SELECT user_id, ssn FROM employee_profiles WHERE user_id = $1`, userID); err != nil {
		return nil, wrap("get employee profile", err)
	}
	return &p, nil
}

func (r *userRepository) GetPatientProfile(ctx context.Context, userID int64) (*model.PatientProfile, error) {
	var p model.PatientProfile
	if err := r.db.GetContext(ctx, &p, `
		SELECT user_id, region, town, kebele, house_number, room_number
		FROM patient_profiles WHERE user_id = $1
	`, userID); err != nil {
		return nil, wrap("get patient profile", err)
	}
	return &p, nil
}

const updateUserQuery = `
	UPDATE users SET
		email = :email,
		first_name = :first_name,
		middle_name = :middle_name,
		last_name = :last_name,
		phone_number = :phone_number,
		address = :address,
		gender = :gender,
		date_of_birth = :date_of_birth,
		ssn = :ssn,
		profile_picture = :profile_picture,
		updated_at = NOW()
	WHERE id = :id
`

func updateUser(ctx context.Context, ext sqlx.ExtContext, user *model.User) error {
	result, err := sqlx.NamedExecContext(ctx, ext, updateUserQuery, user)
	if err != nil {
		return wrap("update user", err)
	}
	return requireRows(result, "update user")
}

func (r *userRepository) UpdatePatientWith(ctx context.Context, user *model.User, p *model.PatientProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `
			UPDATE patient_profiles SET
				region = :region, town = :town, kebele = :kebele,
				house_number = :house_number, room_number = :room_number
			WHERE user_id = :user_id
		`, p)
		if err != nil {
			return wrap("update patient profile", err)
		}
		if err := requireRows(result, "update patient profile"); err != nil {
			return err
		}
		return updateUser(ctx, tx, user)
	})
}

func (r *userRepository) UpdateDoctorWith(ctx context.Context, user *model.User, p *model.DoctorProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO doctor_profiles (user_id, ssn, department, level)
			VALUES (:user_id, :ssn, :department, :level)
			ON CONFLICT (user_id) DO UPDATE
			SET ssn = EXCLUDED.ssn, department = EXCLUDED.department, level = EXCLUDED.level
		`, p)
		if err != nil {
			return wrap("upsert doctor profile", err)
		}
		return updateUser(ctx, tx, user)
	})
}

func (r *userRepository) UpdateEmployeeWith(ctx context.Context, user *model.User, p *model.EmployeeProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO employee_profiles (user_id, ssn) VALUES (:user_id, :ssn)
			ON CONFLICT (user_id) DO UPDATE SET ssn = EXCLUDED.ssn
		`, p)
		if err != nil {
			return wrap("upsert employee profile", err)
		}
		return updateUser(ctx, tx, user)
	})
}
