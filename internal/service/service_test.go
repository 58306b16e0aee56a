package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/kconnect-service/internal/auth"
	"github.com/spec-kit/kconnect-service/internal/config"
	"github.com/spec-kit/kconnect-service/internal/domain"
	"github.com/spec-kit/kconnect-service/internal/events"
	"github.com/spec-kit/kconnect-service/internal/repository/inmemory"
	apperrors "github.com/spec-kit/kconnect-service/pkg/util"
)

type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingSink) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	cfg         config.Config
	store       *inmemory.Store
	sink        *recordingSink
	auth        *AuthService
	employees   *EmployeeService
	departments *DepartmentService
	reports     *ReportService
	seeder      *Seeder
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "0123456789abcdef0123456789abcdef",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
		Seed: config.SeedConfig{
			Enabled:        true,
			AdminEmail:     "admin@kconnect.io",
			AdminPassword:  "admin123",
			AdminName:      "Admin KConnect",
			DepartmentName: "General",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()
	store := inmemory.NewStore()
	dispatcher := events.NewInMemoryDispatcher()
	sink := &recordingSink{}
	NewNotificationService(dispatcher, zap.NewNop(), sink).RegisterHandlers()

	deps := OrgDependencies{
		EmployeeRepo:   store.Employees(),
		DepartmentRepo: store.Departments(),
		ReportRepo:     store.Reports(),
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
	}
	authSvc, err := NewAuthService(cfg, AuthDependencies{
		EmployeeRepo:   store.Employees(),
		DepartmentRepo: store.Departments(),
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
	})
	require.NoError(t, err)

	env := &testEnv{
		cfg:         cfg,
		store:       store,
		sink:        sink,
		auth:        authSvc,
		employees:   NewEmployeeService(cfg, deps),
		departments: NewDepartmentService(deps),
		reports:     NewReportService(deps),
		seeder:      NewSeeder(cfg, deps),
	}
	require.NoError(t, env.seeder.Seed(context.Background()))
	return env
}

func (e *testEnv) admin(t *testing.T) auth.Principal {
	t.Helper()
	emp, err := e.store.Employees().GetByEmail(context.Background(), "admin@kconnect.io")
	require.NoError(t, err)
	return auth.PrincipalFromEmployee(emp)
}

func (e *testEnv) register(t *testing.T, name, email string) (*domain.Employee, auth.Principal) {
	t.Helper()
	emp, _, err := e.auth.Register(context.Background(), nil, RegisterInput{FullName: name, Email: email, Password: "password1"})
	require.NoError(t, err)
	return emp, auth.PrincipalFromEmployee(emp)
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, apperrors.ToDomainError(err).HTTPStatus, "err=%v", err)
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	_, err := NewAuthService(cfg, AuthDependencies{})
	require.ErrorIs(t, err, auth.ErrSigningUnavailable)
}

func TestSeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.seeder.Seed(ctx))

	depts, err := env.departments.List(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	require.Equal(t, "General", depts[0].Name)

	admin, err := env.store.Employees().GetByEmail(ctx, "admin@kconnect.io")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, admin.Role)
	require.Equal(t, &depts[0].ID, admin.DepartmentID)
}

func TestLoginAdmin(t *testing.T) {
	env := newTestEnv(t)

	emp, issued, err := env.auth.Login(context.Background(), "admin@kconnect.io", "admin123")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, emp.Role)

	claims, err := env.auth.TokenManager().Verify(issued.Token, time.Now())
	require.NoError(t, err)
	require.Equal(t, "admin@kconnect.io", claims.Subject)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.WithinDuration(t, time.Now().Add(time.Hour), issued.ExpiresAt, time.Minute)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, unknown := env.auth.Login(ctx, "nobody@kconnect.io", "whatever1")
	_, _, wrong := env.auth.Login(ctx, "admin@kconnect.io", "wrong-password")

	requireStatus(t, unknown, http.StatusUnauthorized)
	requireStatus(t, wrong, http.StatusUnauthorized)
	require.Equal(t, apperrors.ToDomainError(unknown), apperrors.ToDomainError(wrong))
}

func TestLoginNormalizesEmail(t *testing.T) {
	env := newTestEnv(t)
	_, _, err := env.auth.Login(context.Background(), "  Admin@KConnect.io ", "admin123")
	require.NoError(t, err)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	emp, issued, err := env.auth.Register(ctx, nil, RegisterInput{FullName: "Ana", Email: "ana@kconnect.io", Password: "password1"})
	require.NoError(t, err)
	require.Equal(t, domain.RoleEmployee, emp.Role)
	require.NotEqual(t, "password1", emp.PasswordHash)
	require.NotEmpty(t, issued.Token)
	require.Contains(t, env.sink.types(), events.EventEmployeeCreated)

	_, _, err = env.auth.Register(ctx, nil, RegisterInput{FullName: "Ana", Email: "ANA@kconnect.io", Password: "password1"})
	requireStatus(t, err, http.StatusConflict)

	missing := "no-such-department"
	_, _, err = env.auth.Register(ctx, nil, RegisterInput{FullName: "Bo", Email: "bo@kconnect.io", Password: "password1", DepartmentID: &missing})
	requireStatus(t, err, http.StatusNotFound)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{FullName: "", Email: "a@x.io", Password: "password1"},
		{FullName: "A", Email: "not-an-email", Password: "password1"},
		{FullName: "A", Email: "a@x.io", Password: "short"},
		{FullName: "A", Email: "a@x.io", Password: string(make([]byte, auth.MaxPasswordBytes+1))},
		{FullName: "A", Email: "a@x.io", Password: "password1", Role: "ROOT"},
	}
	for _, in := range cases {
		_, _, err := env.auth.Register(ctx, nil, in)
		requireStatus(t, err, http.StatusBadRequest)
	}
}

func TestRegisterAdminRequiresAdminCaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := RegisterInput{FullName: "Root", Email: "root@kconnect.io", Password: "password1", Role: "ADMIN"}

	_, _, err := env.auth.Register(ctx, nil, in)
	requireStatus(t, err, http.StatusForbidden)
	require.ErrorIs(t, err, auth.ErrInsufficientRole)

	_, employee := env.register(t, "Ana", "ana@kconnect.io")
	_, _, err = env.auth.Register(ctx, &employee, in)
	requireStatus(t, err, http.StatusForbidden)

	admin := env.admin(t)
	emp, _, err := env.auth.Register(ctx, &admin, in)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, emp.Role)
}

func TestEmployeeOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana, anaP := env.register(t, "Ana", "ana@kconnect.io")
	bo, boP := env.register(t, "Bo", "bo@kconnect.io")

	got, err := env.employees.Get(ctx, anaP, ana.ID)
	require.NoError(t, err)
	require.Equal(t, "ana@kconnect.io", got.Email)

	_, err = env.employees.Get(ctx, anaP, bo.ID)
	requireStatus(t, err, http.StatusForbidden)
	require.ErrorIs(t, err, auth.ErrNotOwner)

	_, err = env.employees.Get(ctx, env.admin(t), bo.ID)
	require.NoError(t, err)

	_, err = env.employees.Get(ctx, boP, "missing")
	requireStatus(t, err, http.StatusNotFound)

	_, err = env.employees.List(ctx, anaP)
	require.ErrorIs(t, err, auth.ErrInsufficientRole)
	all, err := env.employees.List(ctx, env.admin(t))
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestEmployeeSelfUpdateIsLimitedToName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana, anaP := env.register(t, "Ana", "ana@kconnect.io")

	dept, err := env.departments.Create(ctx, env.admin(t), "Sales", "")
	require.NoError(t, err)

	_, err = env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{DepartmentID: &dept.ID})
	requireStatus(t, err, http.StatusForbidden)
	require.ErrorIs(t, err, auth.ErrRestrictedField)

	admin := string(domain.RoleAdmin)
	_, err = env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{Role: &admin})
	require.ErrorIs(t, err, auth.ErrRestrictedField)

	hire := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{HireDate: &hire})
	require.ErrorIs(t, err, auth.ErrRestrictedField)

	name := "Ana Maria"
	same := string(domain.RoleEmployee)
	updated, err := env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{FullName: &name, Role: &same})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", updated.FullName)
	require.Nil(t, updated.DepartmentID)

	email := "other@kconnect.io"
	_, err = env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{Email: &email})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestAdminCanReassignDepartment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana, _ := env.register(t, "Ana", "ana@kconnect.io")

	dept, err := env.departments.Create(ctx, env.admin(t), "Sales", "")
	require.NoError(t, err)

	updated, err := env.employees.Update(ctx, env.admin(t), ana.ID, UpdateEmployeeInput{DepartmentID: &dept.ID})
	require.NoError(t, err)
	require.Equal(t, "Sales", *updated.DepartmentName)

	missing := "nope"
	_, err = env.employees.Update(ctx, env.admin(t), ana.ID, UpdateEmployeeInput{DepartmentID: &missing})
	requireStatus(t, err, http.StatusNotFound)

	require.Contains(t, env.sink.types(), events.EventEmployeeUpdated)
}

func TestClearingDepartmentIsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ana, anaP := env.register(t, "Ana", "ana@kconnect.io")

	dept, err := env.departments.Create(ctx, env.admin(t), "Sales", "")
	require.NoError(t, err)
	_, err = env.employees.Update(ctx, env.admin(t), ana.ID, UpdateEmployeeInput{DepartmentID: &dept.ID})
	require.NoError(t, err)

	_, err = env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{ClearDepartment: true})
	require.ErrorIs(t, err, auth.ErrRestrictedField)

	cleared, err := env.employees.Update(ctx, env.admin(t), ana.ID, UpdateEmployeeInput{ClearDepartment: true})
	require.NoError(t, err)
	require.Nil(t, cleared.DepartmentID)
	require.Nil(t, cleared.DepartmentName)

	// Already without a department: nothing relational changes.
	name := "Ana Maria"
	updated, err := env.employees.Update(ctx, anaP, ana.ID, UpdateEmployeeInput{FullName: &name, ClearDepartment: true})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", updated.FullName)
}

func TestEmployeeCreateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)

	hire := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	emp, err := env.employees.Create(ctx, admin, CreateEmployeeInput{
		FullName: "Cy", Email: "cy@kconnect.io", Password: "password1", HireDate: &hire,
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleEmployee, emp.Role)
	require.Equal(t, hire, *emp.HireDate)

	_, err = env.employees.Create(ctx, admin, CreateEmployeeInput{FullName: "Cy", Email: "cy@kconnect.io", Password: "password1"})
	requireStatus(t, err, http.StatusConflict)

	cyP := auth.PrincipalFromEmployee(emp)
	require.ErrorIs(t, env.employees.Delete(ctx, cyP, emp.ID), auth.ErrInsufficientRole)
	require.NoError(t, env.employees.Delete(ctx, admin, emp.ID))
	requireStatus(t, env.employees.Delete(ctx, admin, emp.ID), http.StatusNotFound)
	require.Contains(t, env.sink.types(), events.EventEmployeeDeleted)
}

func TestDepartments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	_, anaP := env.register(t, "Ana", "ana@kconnect.io")

	_, err := env.departments.Create(ctx, anaP, "Ops", "")
	require.ErrorIs(t, err, auth.ErrInsufficientRole)

	ops, err := env.departments.Create(ctx, admin, "Ops", "operations")
	require.NoError(t, err)
	_, err = env.departments.Create(ctx, admin, "Ops", "")
	requireStatus(t, err, http.StatusConflict)
	_, err = env.departments.Create(ctx, admin, "  ", "")
	requireStatus(t, err, http.StatusBadRequest)

	renamed, err := env.departments.Update(ctx, admin, ops.ID, "Operations", "ops")
	require.NoError(t, err)
	require.Equal(t, "Operations", renamed.Name)
	_, err = env.departments.Update(ctx, admin, "missing", "X", "")
	requireStatus(t, err, http.StatusNotFound)

	stats, err := env.departments.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, "General", stats[0].Name)
	require.Equal(t, 1, stats[0].EmployeeCount)

	require.NoError(t, env.departments.Delete(ctx, admin, ops.ID))
	requireStatus(t, env.departments.Delete(ctx, admin, ops.ID), http.StatusNotFound)
}

func intPtr(v int) *int          { return &v }
func strPtr(v string) *string    { return &v }
func isForbidden(err error) bool { return errors.Is(err, auth.ErrNotOwner) }

func TestReports(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	_, anaP := env.register(t, "Ana", "ana@kconnect.io")
	_, boP := env.register(t, "Bo", "bo@kconnect.io")

	_, err := env.reports.Create(ctx, anaP, ReportInput{Title: strPtr("Q1"), Score: intPtr(0)})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = env.reports.Create(ctx, anaP, ReportInput{Title: strPtr("Q1"), Score: intPtr(101)})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = env.reports.Create(ctx, anaP, ReportInput{Title: strPtr("Q1")})
	requireStatus(t, err, http.StatusBadRequest)

	report, err := env.reports.Create(ctx, anaP, ReportInput{Title: strPtr("Q1"), Description: strPtr("solid"), Score: intPtr(80)})
	require.NoError(t, err)
	require.Equal(t, "Ana", report.EmployeeName)
	require.Nil(t, report.DepartmentID)

	mine, err := env.reports.Mine(ctx, anaP)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	theirs, err := env.reports.Mine(ctx, boP)
	require.NoError(t, err)
	require.Empty(t, theirs)

	_, err = env.reports.Update(ctx, boP, report.ID, ReportInput{Score: intPtr(10)})
	require.True(t, isForbidden(err))
	requireStatus(t, err, http.StatusForbidden)

	updated, err := env.reports.Update(ctx, anaP, report.ID, ReportInput{Score: intPtr(90)})
	require.NoError(t, err)
	require.Equal(t, 90, updated.Score)
	require.Equal(t, "Q1", updated.Title)

	updated, err = env.reports.Update(ctx, admin, report.ID, ReportInput{Title: strPtr("Q1 review")})
	require.NoError(t, err)
	require.Equal(t, "Q1 review", updated.Title)

	require.ErrorIs(t, env.reports.Delete(ctx, anaP, report.ID), auth.ErrInsufficientRole)
	require.NoError(t, env.reports.Delete(ctx, admin, report.ID))
	_, err = env.reports.Update(ctx, anaP, report.ID, ReportInput{Score: intPtr(50)})
	requireStatus(t, err, http.StatusNotFound)

	require.Equal(t, []events.EventType{
		events.EventEmployeeCreated,
		events.EventEmployeeCreated,
		events.EventReportCreated,
		events.EventReportUpdated,
		events.EventReportUpdated,
		events.EventReportDeleted,
	}, env.sink.types())
}

func TestReportsByDepartment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)

	report, err := env.reports.Create(ctx, admin, ReportInput{Title: strPtr("Setup"), Score: intPtr(70)})
	require.NoError(t, err)
	require.NotNil(t, report.DepartmentID)
	require.Equal(t, "General", *report.DepartmentName)

	list, err := env.reports.ByDepartment(ctx, admin, *report.DepartmentID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, anaP := env.register(t, "Ana", "ana@kconnect.io")
	_, err = env.reports.ByDepartment(ctx, anaP, *report.DepartmentID)
	require.ErrorIs(t, err, auth.ErrInsufficientRole)

	_, err = env.reports.ByDepartment(ctx, admin, "missing")
	requireStatus(t, err, http.StatusNotFound)
}
