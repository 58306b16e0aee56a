package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/kconnect-service/internal/domain"
)

// ReportRepository persists performance reports.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.PerformanceReport) error
	Update(ctx context.Context, report *domain.PerformanceReport) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.PerformanceReport, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]domain.PerformanceReport, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.PerformanceReport, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository builds the repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

const reportColumns = `
        r.id, r.title, r.description, r.score, r.employee_id, e.full_name, e.email,
        r.department_id, d.name, r.created_at
        FROM performance_reports r
        JOIN employees e ON e.id = r.employee_id
        LEFT JOIN departments d ON d.id = r.department_id`

func (r *reportRepository) Create(ctx context.Context, report *domain.PerformanceReport) error {
	const query = `
        INSERT INTO performance_reports (title, description, score, employee_id, department_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		report.Title,
		report.Description,
		report.Score,
		report.EmployeeID,
		report.DepartmentID,
	).Scan(&report.ID, &report.CreatedAt)
	return translate(err)
}

func (r *reportRepository) Update(ctx context.Context, report *domain.PerformanceReport) error {
	const query = `
        UPDATE performance_reports SET title=$1, description=$2, score=$3
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query,
		report.Title,
		report.Description,
		report.Score,
		report.ID,
	)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM performance_reports WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id string) (*domain.PerformanceReport, error) {
	report, err := scanReport(r.pool.QueryRow(ctx, `SELECT`+reportColumns+` WHERE r.id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return report, nil
}

func (r *reportRepository) ListByEmployee(ctx context.Context, employeeID string) ([]domain.PerformanceReport, error) {
	return r.list(ctx, `SELECT`+reportColumns+` WHERE r.employee_id=$1 ORDER BY r.created_at DESC`, employeeID)
}

func (r *reportRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.PerformanceReport, error) {
	return r.list(ctx, `SELECT`+reportColumns+` WHERE r.department_id=$1 ORDER BY r.created_at DESC`, departmentID)
}

func (r *reportRepository) list(ctx context.Context, query, arg string) ([]domain.PerformanceReport, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PerformanceReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func scanReport(row pgx.Row) (*domain.PerformanceReport, error) {
	var report domain.PerformanceReport
	if err := row.Scan(
		&report.ID,
		&report.Title,
		&report.Description,
		&report.Score,
		&report.EmployeeID,
		&report.EmployeeName,
		&report.EmployeeEmail,
		&report.DepartmentID,
		&report.DepartmentName,
		&report.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}
