package controller

import (
	"errors"
	"io"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/router"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/auth"
)

func newTenantApp(t *testing.T, tenant string) (*fiber.App, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	ctrl := NewTenantController(router.New(db, nil, zap.NewNop()), zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.LocTenantKey, tenant)
		return c.Next()
	})
	app.Get("/faculty", ctrl.ListFaculty)
	app.Post("/faculty", ctrl.CreateFaculty)
	app.Delete("/faculty/:id", ctrl.DeleteFaculty)
	app.Get("/students", ctrl.ListStudents)
	app.Delete("/enrollments", ctrl.Unenroll)
	return app, mock
}

func call(t *testing.T, app *fiber.App, method, path, body string) int {
	t.Helper()
	status, _ := callBody(t, app, method, path, body)
	return status
}

func callBody(t *testing.T, app *fiber.App, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestListFaculty_UsesTenantTable(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "Faculty_ECE" ORDER BY faculty_id`)).
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id", "name", "email", "department"}).
			AddRow(1, "Dr. Rao", "rao@college.edu", "ECE"))

	assert.Equal(t, fiber.StatusOK, call(t, app, fiber.MethodGet, "/faculty", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudents_UnprovisionedTenant(t *testing.T) {
	app, mock := newTenantApp(t, "PHYS")
	mock.ExpectQuery(`SELECT \* FROM "Students_PHYS"`).
		WillReturnError(&pgconn.PgError{Code: "42P01", Message: `relation "Students_PHYS" does not exist`})

	assert.Equal(t, fiber.StatusNotFound, call(t, app, fiber.MethodGet, "/students", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFaculty_ForeignDepartment(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	body := `{"name":"Dr. Iyer","email":"iyer@college.edu","password":"secret1","department":"CSE"}`

	assert.Equal(t, fiber.StatusUnprocessableEntity, call(t, app, fiber.MethodPost, "/faculty", body))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFaculty_Validation(t *testing.T) {
	app, _ := newTenantApp(t, "ECE")
	assert.Equal(t, fiber.StatusUnprocessableEntity, call(t, app, fiber.MethodPost, "/faculty", `{"name":"x"}`))
	assert.Equal(t, fiber.StatusBadRequest, call(t, app, fiber.MethodPost, "/faculty", `{`))
}

func TestDeleteFaculty(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "Faculty_ECE" WHERE faculty_id = $1`)).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, fiber.StatusNotFound, call(t, app, fiber.MethodDelete, "/faculty/9", ""))
	assert.Equal(t, fiber.StatusBadRequest, call(t, app, fiber.MethodDelete, "/faculty/abc", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMissingTenantKey(t *testing.T) {
	app, _ := newTenantApp(t, "")
	assert.Equal(t, fiber.StatusBadRequest, call(t, app, fiber.MethodGet, "/faculty", ""))
}

func TestListFaculty_DriverErrorStaysServerSide(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectQuery(`SELECT \* FROM "Faculty_ECE"`).
		WillReturnError(errors.New(`pq: could not connect to server at 10.0.0.5:5432 password authentication failed for user "app"`))

	status, body := callBody(t, app, fiber.MethodGet, "/faculty", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, helper.MsgInternalError)
	assert.NotContains(t, body, "10.0.0.5")
	assert.NotContains(t, body, "password authentication")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFaculty_ByEmail(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectQuery(`SELECT \* FROM "Faculty_ECE" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id", "name", "email", "department"}).
			AddRow(4, "Dr. Rao", "rao@college.edu", "ECE"))

	status, body := callBody(t, app, fiber.MethodGet, "/faculty?email=Rao@College.edu", "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, `"count":1`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListFaculty_ByEmailNoMatch(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectQuery(`SELECT \* FROM "Faculty_ECE" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"faculty_id"}))

	status, body := callBody(t, app, fiber.MethodGet, "/faculty?email=nobody@college.edu", "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Contains(t, body, `"count":0`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUnenroll_Missing(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "StudentEnrollments_ECE" WHERE student_id = $1 AND assigned_subject_id = $2`)).
		WithArgs("S1", 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	status := call(t, app, fiber.MethodDelete, "/enrollments", `{"student_id":"S1","assigned_subject_id":3}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidTenantKey(t *testing.T) {
	app, mock := newTenantApp(t, "A.B")
	assert.Equal(t, fiber.StatusBadRequest, call(t, app, fiber.MethodGet, "/faculty", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFaculty_PasswordOverBcryptLimit(t *testing.T) {
	app, mock := newTenantApp(t, "ECE")
	body := `{"name":"Dr. Iyer","email":"iyer@college.edu","password":"` + strings.Repeat("a", 73) + `"}`

	status, raw := callBody(t, app, fiber.MethodPost, "/faculty", body)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, raw, "Password")
	require.NoError(t, mock.ExpectationsWereMet())
}
