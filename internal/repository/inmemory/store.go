// Package inmemory provides map-backed repositories with the same observable
// behaviour as the Postgres implementations. Tests use it in place of a database.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/repository"
)

// Store holds every table behind one lock so joins and cascades stay consistent.
type Store struct {
	mu          sync.RWMutex
	employees   map[string]domain.Employee
	departments map[string]domain.Department
	reports     map[string]domain.PerformanceReport
	now         func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		employees:   make(map[string]domain.Employee),
		departments: make(map[string]domain.Department),
		reports:     make(map[string]domain.PerformanceReport),
		now:         time.Now,
	}
}

func (s *Store) Employees() repository.EmployeeRepository     { return employeeRepo{s} }
func (s *Store) Departments() repository.DepartmentRepository { return departmentRepo{s} }
func (s *Store) Reports() repository.ReportRepository         { return reportRepo{s} }

// checkID rejects ids that are not UUIDs the way Postgres rejects them for a
// uuid column; the pgx repositories translate that rejection to ErrNotFound.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return repository.ErrNotFound
	}
	return nil
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// tick returns strictly increasing timestamps so ordering by creation time is stable.
func (s *Store) tick(last time.Time) time.Time {
	t := s.now().UTC()
	if !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	return t
}

func (s *Store) latest() time.Time {
	var last time.Time
	for _, e := range s.employees {
		if e.CreatedAt.After(last) {
			last = e.CreatedAt
		}
	}
	for _, r := range s.reports {
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	for _, d := range s.departments {
		if d.CreatedAt.After(last) {
			last = d.CreatedAt
		}
	}
	return last
}

// ---- employees ----

type employeeRepo struct{ s *Store }

func (r employeeRepo) checkDepartment(id *string) error {
	if id == nil {
		return nil
	}
	if err := checkID(*id); err != nil {
		return err
	}
	if _, ok := r.s.departments[*id]; !ok {
		return repository.ErrConflict
	}
	return nil
}

func (r employeeRepo) Create(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.employees {
		if existing.Email == emp.Email {
			return repository.ErrConflict
		}
	}
	if err := r.checkDepartment(emp.DepartmentID); err != nil {
		return err
	}

	emp.ID = uuid.NewString()
	emp.CreatedAt = r.s.tick(r.s.latest())
	emp.UpdatedAt = emp.CreatedAt
	stored := *emp
	stored.DepartmentID = copyString(emp.DepartmentID)
	stored.HireDate = copyTime(emp.HireDate)
	stored.DepartmentName = nil
	r.s.employees[emp.ID] = stored
	return nil
}

func (r employeeRepo) Update(_ context.Context, emp *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.employees[emp.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkDepartment(emp.DepartmentID); err != nil {
		return err
	}
	stored.FullName = emp.FullName
	stored.PasswordHash = emp.PasswordHash
	stored.Role = emp.Role
	stored.HireDate = copyTime(emp.HireDate)
	stored.DepartmentID = copyString(emp.DepartmentID)
	stored.UpdatedAt = r.s.tick(stored.UpdatedAt)
	emp.UpdatedAt = stored.UpdatedAt
	r.s.employees[emp.ID] = stored
	return nil
}

func (r employeeRepo) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.employees, id)
	for rid, rep := range r.s.reports {
		if rep.EmployeeID == id {
			delete(r.s.reports, rid)
		}
	}
	return nil
}

func (r employeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	emp, ok := r.s.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.hydrateEmployee(emp), nil
}

func (r employeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, emp := range r.s.employees {
		if emp.Email == email {
			return r.s.hydrateEmployee(emp), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r employeeRepo) List(_ context.Context) ([]domain.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Employee, 0, len(r.s.employees))
	for _, emp := range r.s.employees {
		result = append(result, *r.s.hydrateEmployee(emp))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *Store) hydrateEmployee(emp domain.Employee) *domain.Employee {
	out := emp
	out.DepartmentID = copyString(emp.DepartmentID)
	out.HireDate = copyTime(emp.HireDate)
	out.DepartmentName = nil
	if emp.DepartmentID != nil {
		if d, ok := s.departments[*emp.DepartmentID]; ok {
			name := d.Name
			out.DepartmentName = &name
		}
	}
	return &out
}

// ---- departments ----

type departmentRepo struct{ s *Store }

func (r departmentRepo) nameTaken(name, exceptID string) bool {
	for id, d := range r.s.departments {
		if d.Name == name && id != exceptID {
			return true
		}
	}
	return false
}

func (r departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(dept.Name, "") {
		return repository.ErrConflict
	}
	dept.ID = uuid.NewString()
	dept.CreatedAt = r.s.tick(r.s.latest())
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r departmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.departments[dept.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.nameTaken(dept.Name, dept.ID) {
		return repository.ErrConflict
	}
	stored.Name = dept.Name
	stored.Description = dept.Description
	r.s.departments[dept.ID] = stored
	return nil
}

func (r departmentRepo) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.departments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.departments, id)
	for eid, emp := range r.s.employees {
		if emp.DepartmentID != nil && *emp.DepartmentID == id {
			emp.DepartmentID = nil
			r.s.employees[eid] = emp
		}
	}
	for rid, rep := range r.s.reports {
		if rep.DepartmentID != nil && *rep.DepartmentID == id {
			rep.DepartmentID = nil
			r.s.reports[rid] = rep
		}
	}
	return nil
}

func (r departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.departments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r departmentRepo) Stats(ctx context.Context) ([]domain.DepartmentStats, error) {
	depts, _ := r.List(ctx)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, emp := range r.s.employees {
		if emp.DepartmentID != nil {
			counts[*emp.DepartmentID]++
		}
	}
	result := make([]domain.DepartmentStats, 0, len(depts))
	for _, d := range depts {
		result = append(result, domain.DepartmentStats{ID: d.ID, Name: d.Name, EmployeeCount: counts[d.ID]})
	}
	return result, nil
}

func (r departmentRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.departments), nil
}

// ---- reports ----

type reportRepo struct{ s *Store }

func (r reportRepo) Create(_ context.Context, report *domain.PerformanceReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[report.EmployeeID]; !ok {
		return repository.ErrConflict
	}
	if report.DepartmentID != nil {
		if err := checkID(*report.DepartmentID); err != nil {
			return err
		}
		if _, ok := r.s.departments[*report.DepartmentID]; !ok {
			return repository.ErrConflict
		}
	}
	report.ID = uuid.NewString()
	report.CreatedAt = r.s.tick(r.s.latest())
	stored := *report
	stored.DepartmentID = copyString(report.DepartmentID)
	r.s.reports[report.ID] = stored
	return nil
}

func (r reportRepo) Update(_ context.Context, report *domain.PerformanceReport) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.reports[report.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = report.Title
	stored.Description = report.Description
	stored.Score = report.Score
	r.s.reports[report.ID] = stored
	return nil
}

func (r reportRepo) Delete(_ context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.reports, id)
	return nil
}

func (r reportRepo) GetByID(_ context.Context, id string) (*domain.PerformanceReport, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rep, ok := r.s.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.hydrateReport(rep), nil
}

func (r reportRepo) ListByEmployee(_ context.Context, employeeID string) ([]domain.PerformanceReport, error) {
	return r.filter(func(rep domain.PerformanceReport) bool { return rep.EmployeeID == employeeID }), nil
}

func (r reportRepo) ListByDepartment(_ context.Context, departmentID string) ([]domain.PerformanceReport, error) {
	return r.filter(func(rep domain.PerformanceReport) bool {
		return rep.DepartmentID != nil && *rep.DepartmentID == departmentID
	}), nil
}

func (r reportRepo) filter(keep func(domain.PerformanceReport) bool) []domain.PerformanceReport {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []domain.PerformanceReport
	for _, rep := range r.s.reports {
		if keep(rep) {
			result = append(result, *r.s.hydrateReport(rep))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (s *Store) hydrateReport(rep domain.PerformanceReport) *domain.PerformanceReport {
	out := rep
	out.DepartmentID = copyString(rep.DepartmentID)
	out.DepartmentName = nil
	if emp, ok := s.employees[rep.EmployeeID]; ok {
		out.EmployeeName = emp.FullName
		out.EmployeeEmail = emp.Email
	}
	if rep.DepartmentID != nil {
		if d, ok := s.departments[*rep.DepartmentID]; ok {
			name := d.Name
			out.DepartmentName = &name
		}
	}
	return &out
}
