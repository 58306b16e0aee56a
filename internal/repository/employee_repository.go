package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// EmployeeRepository persists employees. It doubles as the principal store:
// GetByEmail and GetByID return the credential hash and role used at login.
type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	Update(ctx context.Context, emp *domain.Employee) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context) ([]domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `
        e.id, e.full_name, e.email, e.password_hash, e.role, e.hire_date,
        e.department_id, d.name, e.created_at, e.updated_at
        FROM employees e LEFT JOIN departments d ON d.id = e.department_id`

func (r *employeeRepository) Create(ctx context.Context, emp *domain.Employee) error {
	const query = `
        INSERT INTO employees (full_name, email, password_hash, role, hire_date, department_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		emp.FullName,
		emp.Email,
		emp.PasswordHash,
		emp.Role,
		emp.HireDate,
		emp.DepartmentID,
	).Scan(&emp.ID, &emp.CreatedAt, &emp.UpdatedAt)
	return translate(err)
}

func (r *employeeRepository) Update(ctx context.Context, emp *domain.Employee) error {
	const query = `
        UPDATE employees SET full_name=$1, password_hash=$2, role=$3, hire_date=$4, department_id=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		emp.FullName,
		emp.PasswordHash,
		emp.Role,
		emp.HireDate,
		emp.DepartmentID,
		emp.ID,
	).Scan(&emp.UpdatedAt)
	return translate(err)
}

func (r *employeeRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM employees WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return r.getOne(ctx, `SELECT`+employeeColumns+` WHERE e.id=$1`, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	return r.getOne(ctx, `SELECT`+employeeColumns+` WHERE e.email=$1`, email)
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+employeeColumns+` ORDER BY e.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *emp)
	}
	return result, rows.Err()
}

func (r *employeeRepository) getOne(ctx context.Context, query string, arg string) (*domain.Employee, error) {
	emp, err := scanEmployee(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, translate(err)
	}
	return emp, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var emp domain.Employee
	if err := row.Scan(
		&emp.ID,
		&emp.FullName,
		&emp.Email,
		&emp.PasswordHash,
		&emp.Role,
		&emp.HireDate,
		&emp.DepartmentID,
		&emp.DepartmentName,
		&emp.CreatedAt,
		&emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &emp, nil
}
