package service

import (
	"context"
	"strings"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/events"
	"github.com/spec-kit/kconnect-service/internal/repository"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

// ReportService manages performance reports.
type ReportService struct {
	reports     repository.ReportRepository
	employees   repository.EmployeeRepository
	departments repository.DepartmentRepository
	emitter
}

// ReportInput carries report fields. Nil fields are left unchanged on update
// and rejected on create.
type ReportInput struct {
	Title       *string
	Description *string
	Score       *int
}

// NewReportService constructs the service.
func NewReportService(deps OrgDependencies) *ReportService {
	return &ReportService{
		reports:     deps.ReportRepo,
		employees:   deps.EmployeeRepo,
		departments: deps.DepartmentRepo,
		emitter:     emitter{dispatcher: deps.Dispatcher, logger: deps.Logger},
	}
}

// Create files a report for the caller, tagged with the caller's current
// department.
func (s *ReportService) Create(ctx context.Context, actor auth.Principal, in ReportInput) (*domain.PerformanceReport, error) {
	if in.Title == nil || in.Score == nil {
		return nil, apperrors.NewValidationError("title and score are required", nil)
	}
	report := &domain.PerformanceReport{}
	if err := applyReportInput(report, in); err != nil {
		return nil, err
	}

	emp, err := s.employees.GetByID(ctx, actor.SubjectID)
	if err != nil {
		return nil, mapRepoError(err, "employee")
	}
	report.EmployeeID = emp.ID
	report.DepartmentID = emp.DepartmentID

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, mapRepoError(err, "report")
	}
	s.emit(ctx, events.EventReportCreated, report.ID, actor, reportPayload(report))
	return s.reload(ctx, report.ID)
}

// Mine lists the caller's reports, newest first.
func (s *ReportService) Mine(ctx context.Context, actor auth.Principal) ([]domain.PerformanceReport, error) {
	return s.reports.ListByEmployee(ctx, actor.SubjectID)
}

// ByDepartment lists a department's reports. Admin only.
func (s *ReportService) ByDepartment(ctx context.Context, actor auth.Principal, departmentID string) ([]domain.PerformanceReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		return nil, mapRepoError(err, "department")
	}
	return s.reports.ListByDepartment(ctx, departmentID)
}

// Update edits a report owned by the caller, or any report for an admin.
func (s *ReportService) Update(ctx context.Context, actor auth.Principal, id string, in ReportInput) (*domain.PerformanceReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "report")
	}
	if err := requireOwnerOrAdmin(actor, report.EmployeeEmail); err != nil {
		return nil, err
	}
	if err := applyReportInput(report, in); err != nil {
		return nil, err
	}
	if err := s.reports.Update(ctx, report); err != nil {
		return nil, mapRepoError(err, "report")
	}
	s.emit(ctx, events.EventReportUpdated, report.ID, actor, reportPayload(report))
	return s.reload(ctx, report.ID)
}

// Delete removes a report. Admin only.
func (s *ReportService) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err, "report")
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return mapRepoError(err, "report")
	}
	s.emit(ctx, events.EventReportDeleted, id, actor, reportPayload(report))
	return nil
}

func (s *ReportService) reload(ctx context.Context, id string) (*domain.PerformanceReport, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "report")
	}
	return report, nil
}

func applyReportInput(report *domain.PerformanceReport, in ReportInput) error {
	if in.Title != nil {
		title, err := requireText("title", *in.Title, maxNameLength)
		if err != nil {
			return err
		}
		report.Title = title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if len(desc) > maxDescriptionLength {
			return apperrors.NewValidationError("description too long", map[string]any{"field": "description", "max": maxDescriptionLength})
		}
		report.Description = desc
	}
	if in.Score != nil {
		if *in.Score < domain.MinReportScore || *in.Score > domain.MaxReportScore {
			return apperrors.NewValidationError("score out of range", map[string]any{
				"field": "score", "min": domain.MinReportScore, "max": domain.MaxReportScore,
			})
		}
		report.Score = *in.Score
	}
	return nil
}

func reportPayload(r *domain.PerformanceReport) events.ReportChangedPayload {
	return events.ReportChangedPayload{EmployeeID: r.EmployeeID, DepartmentID: r.DepartmentID, Score: r.Score}
}
