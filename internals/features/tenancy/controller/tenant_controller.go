package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/dto"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/router"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/auth"
)

// TenantController serves department-scoped records; every action runs on a
// handle for the tenant key resolved by auth.DepartmentScope.
type TenantController struct {
	Router   *router.Router
	Validate *validator.Validate
	Log      *zap.Logger
}

func NewTenantController(r *router.Router, log *zap.Logger) *TenantController {
	return &TenantController{Router: r, Validate: helper.NewValidator(), Log: logger.OrNop(log)}
}

func (ctrl *TenantController) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, router.ErrEmptyTenantKey), errors.Is(err, router.ErrInvalidTenantKey):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, router.ErrNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, router.ErrDepartmentMismatch), errors.Is(err, router.ErrPasswordTooLong):
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, router.ErrEnrollmentFull):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case helper.IsUniqueViolation(err):
		return helper.JsonError(c, fiber.StatusConflict, "record already exists")
	case helper.IsForeignKeyViolation(err):
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "referenced record does not exist")
	case helper.IsUndefinedTable(err):
		return helper.JsonError(c, fiber.StatusNotFound, "tenant tables are not provisioned")
	}
	return helper.JsonInternalError(c, ctrl.Log.With(zap.String("tenant", auth.TenantKey(c))), err)
}

func (ctrl *TenantController) with(c *fiber.Ctx, fn func(h *router.Handle) error) error {
	return ctrl.Router.WithHandle(c.UserContext(), auth.TenantKey(c), fn)
}

// bind parses and validates the body; when ok is false the error response is already written.
func (ctrl *TenantController) bind(c *fiber.Ctx, out any) (ok bool, err error) {
	if err := c.BodyParser(out); err != nil {
		return false, helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(out); err != nil {
		return false, helper.JsonValidationError(c, err)
	}
	return true, nil
}

func intParam(c *fiber.Ctx, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.Params(name)))
	if err != nil || n <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}
	return n, nil
}

func yearQuery(c *fiber.Ctx) int {
	y, _ := strconv.Atoi(c.Query("year"))
	return y
}

// =======================
// STUDENTS
// =======================

// GET /api/a/:department/students?year=
func (ctrl *TenantController) ListStudents(c *fiber.Ctx) error {
	var rows []model.Student
	err := ctrl.with(c, func(h *router.Handle) (err error) {
		rows, err = h.Students().List(yearQuery(c))
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonList(c, "students", rows, len(rows))
}

// POST /api/a/:department/students
func (ctrl *TenantController) CreateStudent(c *fiber.Ctx) error {
	var req dto.CreateStudentRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	s := req.ToModel()
	if err := ctrl.with(c, func(h *router.Handle) error { return h.Students().Create(s) }); err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "student created", s)
}

// DELETE /api/a/:department/students/:id
func (ctrl *TenantController) DeleteStudent(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	var removed bool
	err := ctrl.with(c, func(h *router.Handle) (err error) {
		removed, err = h.Students().Delete(id)
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	if !removed {
		return helper.JsonError(c, fiber.StatusNotFound, "student not found")
	}
	return helper.JsonDeleted(c, "student deleted", fiber.Map{"student_id": id})
}

// GET /api/a/:department/students/:id/enrollments
func (ctrl *TenantController) ListStudentEnrollments(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	var rows []model.StudentEnrollment
	err := ctrl.with(c, func(h *router.Handle) error {
		if _, err := h.Students().Get(id); err != nil {
			return err
		}
		var err error
		rows, err = h.Enrollments().ListByStudent(id)
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonList(c, "enrollments", rows, len(rows))
}

// =======================
// FACULTY
// =======================

// GET /api/a/:department/faculty?email=
func (ctrl *TenantController) ListFaculty(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	var rows []model.Faculty
	err := ctrl.with(c, func(h *router.Handle) error {
		if email == "" {
			var err error
			rows, err = h.Faculty().List()
			return err
		}
		f, err := h.Faculty().FindByEmail(email)
		if errors.Is(err, router.ErrNotFound) {
			rows = []model.Faculty{}
			return nil
		}
		if err != nil {
			return err
		}
		rows = []model.Faculty{*f}
		return nil
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonList(c, "faculty", rows, len(rows))
}

// POST /api/a/:department/faculty
func (ctrl *TenantController) CreateFaculty(c *fiber.Ctx) error {
	var req dto.CreateFacultyRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	f := req.ToModel()
	if err := ctrl.with(c, func(h *router.Handle) error { return h.Faculty().Create(f) }); err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "faculty created", f)
}

// DELETE /api/a/:department/faculty/:id
func (ctrl *TenantController) DeleteFaculty(c *fiber.Ctx) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var removed bool
	err = ctrl.with(c, func(h *router.Handle) (err error) {
		removed, err = h.Faculty().Delete(id)
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	if !removed {
		return helper.JsonError(c, fiber.StatusNotFound, "faculty not found")
	}
	return helper.JsonDeleted(c, "faculty deleted", fiber.Map{"faculty_id": id})
}

// =======================
// SUBJECTS & ASSIGNMENTS
// =======================

// GET /api/a/:department/subjects?year=
func (ctrl *TenantController) ListSubjects(c *fiber.Ctx) error {
	var rows []model.Subject
	err := ctrl.with(c, func(h *router.Handle) (err error) {
		rows, err = h.Subjects().List(yearQuery(c))
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonList(c, "subjects", rows, len(rows))
}

// POST /api/a/:department/subjects
func (ctrl *TenantController) CreateSubject(c *fiber.Ctx) error {
	var req dto.CreateSubjectRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	s := req.ToModel()
	if err := ctrl.with(c, func(h *router.Handle) error { return h.Subjects().Create(s) }); err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "subject created", s)
}

// GET /api/a/:department/assignments?faculty_id=
func (ctrl *TenantController) ListAssignments(c *fiber.Ctx) error {
	facultyID, _ := strconv.Atoi(c.Query("faculty_id"))
	var rows []model.AssignedSubject
	err := ctrl.with(c, func(h *router.Handle) (err error) {
		if facultyID > 0 {
			rows, err = h.Assignments().ListByFaculty(facultyID)
			return err
		}
		rows, err = h.Assignments().List()
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonList(c, "assignments", rows, len(rows))
}

// POST /api/a/:department/assignments
func (ctrl *TenantController) CreateAssignment(c *fiber.Ctx) error {
	var req dto.CreateAssignmentRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	a := req.ToModel()
	err := ctrl.with(c, func(h *router.Handle) error {
		return h.Transaction(func(tx *router.Handle) error {
			if _, err := tx.Faculty().Get(a.FacultyID); err != nil {
				return err
			}
			if _, err := tx.Subjects().Get(a.SubjectID); err != nil {
				return err
			}
			return tx.Assignments().Create(a)
		})
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "assignment created", a)
}

// POST /api/a/:department/enrollments
func (ctrl *TenantController) Enroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	var e *model.StudentEnrollment
	err := ctrl.with(c, func(h *router.Handle) error {
		if _, err := h.Students().Get(req.StudentID); err != nil {
			return err
		}
		var err error
		e, err = h.Enrollments().Enroll(req.StudentID, req.AssignedSubjectID)
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "enrolled", e)
}

// DELETE /api/a/:department/enrollments
func (ctrl *TenantController) Unenroll(c *fiber.Ctx) error {
	var req dto.EnrollRequest
	if ok, err := ctrl.bind(c, &req); !ok {
		return err
	}
	var removed bool
	err := ctrl.with(c, func(h *router.Handle) (err error) {
		removed, err = h.Enrollments().Unenroll(req.StudentID, req.AssignedSubjectID)
		return err
	})
	if err != nil {
		return ctrl.fail(c, err)
	}
	if !removed {
		return helper.JsonError(c, fiber.StatusNotFound, "enrollment not found")
	}
	return helper.JsonDeleted(c, "unenrolled", req)
}
