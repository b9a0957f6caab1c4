package router

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
)

func setupRouter(t *testing.T) (*Router, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormLogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return New(db, NewTemplateCache(), zap.NewNop()), mock
}

func TestGetHandle_SharesTemplateAcrossSpellings(t *testing.T) {
	r, _ := setupRouter(t)
	ctx := context.Background()

	a, err := r.GetHandle(ctx, "CSE(DS)")
	require.NoError(t, err)
	b, err := r.GetHandle(ctx, "cseds")
	require.NoError(t, err)
	defer a.Release()
	defer b.Release()

	assert.NotSame(t, a, b)
	assert.Same(t, a.Template(), b.Template())
	assert.Equal(t, "CSEDS", a.TenantKey())
	assert.Equal(t, "Faculty_CSEDS", a.Tables().Faculty)
	assert.Equal(t, "Students_CSEDS", a.Tables().Students)
	assert.Equal(t, "Subjects_CSEDS", a.Tables().Subjects)
	assert.Equal(t, "AssignedSubjects_CSEDS", a.Tables().AssignedSubjects)
	assert.Equal(t, "StudentEnrollments_CSEDS", a.Tables().StudentEnrollments)
	assert.Equal(t, 1, r.Cache().Len())
}

func TestGetHandle_EmptyKey(t *testing.T) {
	r, _ := setupRouter(t)
	for _, raw := range []string{"", "  ", "()"} {
		_, err := r.GetHandle(context.Background(), raw)
		assert.ErrorIs(t, err, ErrEmptyTenantKey, "raw %q", raw)
	}
	assert.Equal(t, 0, r.Cache().Len())
}

func TestClearCache(t *testing.T) {
	r, _ := setupRouter(t)
	ctx := context.Background()

	h1, err := r.GetHandle(ctx, "ECE")
	require.NoError(t, err)
	_, err = r.GetHandle(ctx, "CSE")
	require.NoError(t, err)
	require.Equal(t, 2, r.Cache().Len())

	r.ClearCache("ece")
	assert.Equal(t, 1, r.Cache().Len())

	h2, err := r.GetHandle(ctx, "ECE")
	require.NoError(t, err)
	assert.NotSame(t, h1.Template(), h2.Template())
	assert.Equal(t, h1.Tables(), h2.Tables())

	r.ClearAllCache()
	assert.Equal(t, 0, r.Cache().Len())
}

func TestReleasedHandleRejectsWork(t *testing.T) {
	r, mock := setupRouter(t)

	h, err := r.GetHandle(context.Background(), "ECE")
	require.NoError(t, err)
	h.Release()
	h.Release()
	assert.True(t, h.Released())

	_, err = h.Faculty().List()
	assert.ErrorIs(t, err, ErrHandleReleased)
	_, err = h.Enrollments().Enroll("S1", 1)
	assert.ErrorIs(t, err, ErrHandleReleased)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithHandle_ReleasesOnError(t *testing.T) {
	r, _ := setupRouter(t)
	boom := errors.New("boom")

	var kept *Handle
	err := r.WithHandle(context.Background(), "IT", func(h *Handle) error {
		kept = h
		assert.False(t, h.Released())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, kept)
	assert.True(t, kept.Released())
}

func TestStudentCreate_StampsDepartmentAndHashes(t *testing.T) {
	r, mock := setupRouter(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "Students_CSEDS"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := r.WithHandle(context.Background(), "CSE-DS", func(h *Handle) error {
		s := &model.Student{StudentID: "S1", FullName: "Asha", RegdNumber: "R1", Year: 2, Email: "a@x.io", Password: "secret"}
		if err := h.Students().Create(s); err != nil {
			return err
		}
		assert.Equal(t, "CSEDS", s.Department)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(s.Password), []byte("secret")))
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RejectsForeignDepartment(t *testing.T) {
	r, mock := setupRouter(t)

	err := r.WithHandle(context.Background(), "ECE", func(h *Handle) error {
		return h.Subjects().Create(&model.Subject{Name: "Signals", Department: "CSE"})
	})
	assert.ErrorIs(t, err, ErrDepartmentMismatch)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHashPassword_RehashesHashLookingInput(t *testing.T) {
	h, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	got, err := hashPassword(string(h))
	require.NoError(t, err)
	assert.NotEqual(t, string(h), got)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got), h))
}

func TestHashPassword_ByteLimit(t *testing.T) {
	_, err := hashPassword(strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestGetHandle_RejectsUnprovisionableKey(t *testing.T) {
	r, _ := setupRouter(t)
	for _, raw := range []string{"A.B", "cse;drop", "ÉCE"} {
		_, err := r.GetHandle(context.Background(), raw)
		assert.ErrorIs(t, err, ErrInvalidTenantKey, "raw %q", raw)
	}
	assert.Equal(t, 0, r.Cache().Len())
}

func TestUnenroll_DecrementsSelectedCount(t *testing.T) {
	r, mock := setupRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "StudentEnrollments_ECE" WHERE student_id = $1 AND assigned_subject_id = $2`)).
		WithArgs("S1", 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "AssignedSubjects_ECE" SET "selected_count"=GREATEST(selected_count - 1, 0) WHERE assigned_subject_id = $1`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	h, err := r.GetHandle(context.Background(), "ECE")
	require.NoError(t, err)
	defer h.Release()

	removed, err := h.Enrollments().Unenroll("S1", 3)
	require.NoError(t, err)
	assert.True(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyDelete_UsesTenantTable(t *testing.T) {
	r, mock := setupRouter(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "Faculty_ECE" WHERE faculty_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h, err := r.GetHandle(context.Background(), "ece")
	require.NoError(t, err)
	defer h.Release()

	ok, err := h.Faculty().Delete(7)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnroll_FullSubjectRollsBack(t *testing.T) {
	r, mock := setupRouter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "AssignedSubjects_ECE" WHERE assigned_subject_id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"assigned_subject_id", "faculty_id", "subject_id", "department", "year", "selected_count"}).
			AddRow(3, 1, 9, "ECE", 2, 2))
	mock.ExpectQuery(`SELECT \* FROM "Subjects_ECE" WHERE subject_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "name", "department", "year", "subject_type", "max_enrollments"}).
			AddRow(9, "VLSI", "ECE", 2, "Elective", 2))
	mock.ExpectRollback()

	h, err := r.GetHandle(context.Background(), "ECE")
	require.NoError(t, err)
	defer h.Release()

	_, err = h.Enrollments().Enroll("S1", 3)
	assert.ErrorIs(t, err, ErrEnrollmentFull)
	require.NoError(t, mock.ExpectationsWereMet())
}
