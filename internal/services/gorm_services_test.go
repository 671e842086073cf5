// internal/services/gorm_services_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/models"
	"github.com/javajoker/assetdesk/internal/utils"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "failed to create sqlmock")
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestRoleService_ResolveScope(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRoleService(db, NewAuditService(db))
	ctx := context.Background()

	scope, err := svc.ResolveScope(ctx, models.RoleAdmin, "acme")
	require.NoError(t, err)
	assert.Equal(t, models.AccessScopeUnrestricted, scope)

	scope, err = svc.ResolveScope(ctx, models.RoleOperator, "acme")
	require.NoError(t, err)
	assert.Equal(t, models.AccessScopeRestricted, scope)

	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE .*name = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scope"}).AddRow(uuid.NewString(), "auditor", "unrestricted"))
	scope, err = svc.ResolveScope(ctx, "auditor", "acme")
	require.NoError(t, err)
	assert.Equal(t, models.AccessScopeUnrestricted, scope)

	mock.ExpectQuery(`SELECT \* FROM "roles"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	scope, err = svc.ResolveScope(ctx, "ghost", "acme")
	require.NoError(t, err)
	assert.Equal(t, models.AccessScopeNone, scope)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleService_UpdatePermissionsWritesAuditLog(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRoleService(db, NewAuditService(db))

	roleID := uuid.New()
	actor := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "roles" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scope", "permissions"}).
			AddRow(roleID.String(), "auditor", "none", `{"products":["read"]}`))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "roles" SET "permissions"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	role, err := svc.UpdatePermissions(context.Background(), AuditContext{ActorID: actor, IPAddress: "10.0.0.1"}, roleID,
		&UpdatePermissionsRequest{Permissions: models.PermissionMatrix{"products": {"write", "read", "read"}}})
	require.NoError(t, err)

	assert.Equal(t, models.PermissionMatrix{"products": {"read", "write"}}, role.Permissions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleService_UpdatePermissionsRollsBackOnAuditFailure(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRoleService(db, NewAuditService(db))

	roleID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scope"}).AddRow(roleID.String(), "auditor", "none"))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "roles"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).WillReturnError(errStoreDown)
	mock.ExpectRollback()

	_, err := svc.UpdatePermissions(context.Background(), AuditContext{}, roleID,
		&UpdatePermissionsRequest{Permissions: models.PermissionMatrix{"products": {"read"}}})
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleService_BuiltInRolesAreProtected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewRoleService(db, NewAuditService(db))

	roleID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "roles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "scope", "is_built_in"}).
			AddRow(roleID.String(), models.RoleAdmin, "unrestricted", true))

	err := svc.DeleteRole(context.Background(), AuditContext{}, roleID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWFHService_DuplicateDayConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWFHService(db, nil)
	caller := Caller{UserID: uuid.New(), Role: models.RoleEmployee, Scope: models.AccessScopeNone, Workspace: "acme"}

	mock.ExpectQuery(`INSERT INTO "work_from_homes"`).WillReturnError(gorm.ErrDuplicatedKey)

	_, err := svc.CreateWFH(context.Background(), caller, &CreateWFHRequest{Date: "2026-05-04"})
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWFHService_CreateValidatesDate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWFHService(db, nil)
	caller := Caller{UserID: uuid.New()}

	var verr *ValidationError
	_, err := svc.CreateWFH(context.Background(), caller, &CreateWFHRequest{Date: "whenever"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	_, err = svc.CreateWFH(context.Background(), caller, &CreateWFHRequest{Date: "   "})
	require.ErrorAs(t, err, &verr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWFHService_ReviewRequiresAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewWFHService(db, nil)
	operator := Caller{UserID: uuid.New(), Role: models.RoleOperator, Scope: models.AccessScopeRestricted, Branch: "north"}

	_, err := svc.ReviewWFH(context.Background(), operator, uuid.New(), &ReviewWFHRequest{Status: models.WFHStatusApproved})
	assert.ErrorIs(t, err, ErrPermission)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWFHService_ReviewNotifiesUser(t *testing.T) {
	db, mock := newMockDB(t)
	mailer := &recordingMailer{}
	svc := NewWFHService(db, NewNotificationService(mailer))
	admin := Caller{UserID: uuid.New(), Role: models.RoleAdmin, Scope: models.AccessScopeUnrestricted}

	recordID, userID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "work_from_homes" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "date", "status"}).
			AddRow(recordID.String(), userID.String(), time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), "pending"))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE "users"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(userID.String(), "Dana", "dana@example.com"))
	mock.ExpectExec(`UPDATE "work_from_homes" SET`).WillReturnResult(sqlmock.NewResult(0, 1))

	record, err := svc.ReviewWFH(context.Background(), admin, recordID, &ReviewWFHRequest{Status: models.WFHStatusRejected})
	require.NoError(t, err)

	assert.Equal(t, models.WFHStatusRejected, record.Status)
	require.NotNil(t, record.ReviewedBy)
	assert.Equal(t, admin.UserID, *record.ReviewedBy)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "dana@example.com", mailer.sent[0].To)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderService_SendDueReminders(t *testing.T) {
	db, mock := newMockDB(t)
	mailer := &recordingMailer{}
	svc := NewReminderService(db, NewNotificationService(mailer))
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	sent, unaddressed := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "reminders" WHERE .*notified_at IS NULL AND remind_at <= \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "email", "remind_at"}).
			AddRow(sent.String(), uuid.NewString(), "Renew licence", "ops@example.com", now.Add(-time.Minute)).
			AddRow(unaddressed.String(), uuid.NewString(), "No inbox", "", now.Add(-time.Hour)))
	mock.ExpectExec(`UPDATE "reminders" SET "notified_at"=\$1`).
		WithArgs(now, sent.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.SendDueReminders(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, SweepResult{Sent: 1, Failed: 1}, result)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ops@example.com", mailer.sent[0].To)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderService_DeleteOnlyOwn(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewReminderService(db, nil)
	caller := Caller{UserID: uuid.New()}

	mock.ExpectExec(`UPDATE "reminders" SET "deleted_at"=\$1 WHERE .*id = \$2 AND user_id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteReminder(context.Background(), caller, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login(t *testing.T) {
	db, mock := newMockDB(t)
	cfg := &config.Config{JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1}}
	utils.SetJWTSecret(cfg.JWT.SecretKey)
	svc := NewAuthService(db, cfg, NewRoleService(db, NewAuditService(db)))

	user := models.User{Email: "op@example.com", Role: models.RoleOperator, Branch: "north", Workspace: "acme", IsActive: true}
	require.NoError(t, user.SetPassword("S3cure!pass"))
	userID := uuid.New()

	columns := []string{"id", "email", "password_hash", "role", "branch", "workspace", "is_active"}
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(userID.String(), user.Email, user.PasswordHash, user.Role, user.Branch, user.Workspace, true))
	mock.ExpectExec(`UPDATE "users" SET "last_login_at"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), &LoginRequest{Email: "OP@example.com", Password: "S3cure!pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, models.RoleOperator, claims.Role)
	assert.Equal(t, string(models.AccessScopeRestricted), claims.Scope)
	assert.Equal(t, "north", claims.Branch)
	assert.Equal(t, "acme", claims.Workspace)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(userID.String(), user.Email, user.PasswordHash, user.Role, user.Branch, user.Workspace, true))
	_, err = svc.Login(context.Background(), &LoginRequest{Email: "op@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(sqlmock.NewRows(columns))
	_, err = svc.Login(context.Background(), &LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_SeedAdminSkipsWithoutPassword(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAuthService(db, &config.Config{}, nil)

	require.NoError(t, svc.SeedAdmin(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditService_ListFilters(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAuditService(db)
	resourceID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE resource_type = \$1 AND resource_id = \$2`).
		WithArgs("role", resourceID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE resource_type = \$1 AND resource_id = \$2 .*ORDER BY created_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action", "resource_type"}).
			AddRow(uuid.NewString(), models.AuditActionRolePermissionsChanged, "role"))

	logs, total, err := svc.ListAuditLogs(context.Background(), AuditLogFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 20},
		ResourceType:     "role",
		ResourceID:       &resourceID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionRolePermissionsChanged, logs[0].Action)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_UpdateUserRecordsAudit(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAdminService(db, NewAuditService(db))

	userID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "role", "branch", "is_active"}).
			AddRow(userID.String(), "op@example.com", "Op", models.RoleOperator, "north", true))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET .*"branch"=`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	branch := "south"
	user, err := svc.UpdateUser(context.Background(), AuditContext{ActorID: uuid.New()}, userID, &UpdateUserRequest{Branch: &branch})
	require.NoError(t, err)
	assert.Equal(t, "south", user.Branch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminService_CannotDeactivateSelf(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAdminService(db, NewAuditService(db))

	adminID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "is_active"}).
			AddRow(adminID.String(), "admin@example.com", models.RoleAdmin, true))

	inactive := false
	_, err := svc.UpdateUser(context.Background(), AuditContext{ActorID: adminID}, adminID, &UpdateUserRequest{IsActive: &inactive})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is_active", verr.Field)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyService_CreateNormalizesInput(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCompanyService(db)

	mock.ExpectQuery(`INSERT INTO "companies"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	company, err := svc.CreateCompany(context.Background(), &CreateCompanyRequest{
		Name:     "  Acme Ltd ",
		Domain:   "Acme.Example.com",
		Branches: []string{"north", " north ", "", "south"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", company.Name)
	assert.Equal(t, "acme.example.com", company.Domain)
	assert.Equal(t, []string{"north", "south"}, []string(company.Branches))
	assert.True(t, company.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyService_DuplicateDomainConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCompanyService(db)

	mock.ExpectQuery(`INSERT INTO "companies"`).WillReturnError(gorm.ErrDuplicatedKey)

	_, err := svc.CreateCompany(context.Background(), &CreateCompanyRequest{Name: "Acme", Domain: "acme.example.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCompanyService_RejectsInvalidDomain(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewCompanyService(db)

	_, err := svc.CreateCompany(context.Background(), &CreateCompanyRequest{Name: "Acme", Domain: "not a domain"})
	assert.True(t, utils.IsValidationErrors(err))
}

func TestCompanyService_DeleteUnknown(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewCompanyService(db)

	mock.ExpectExec(`UPDATE "companies" SET "deleted_at"`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.DeleteCompany(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
