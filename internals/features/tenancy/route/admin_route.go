package route

import (
	"github.com/gofiber/fiber/v2"

	tenantController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/controller"
)

// TenantAdminRoutes expects router to be /api/a/:department with DepartmentScope applied.
func TenantAdminRoutes(router fiber.Router, ctrl *tenantController.TenantController) {
	students := router.Group("/students")
	students.Get("/", ctrl.ListStudents)
	students.Post("/", ctrl.CreateStudent)
	students.Delete("/:id", ctrl.DeleteStudent)
	students.Get("/:id/enrollments", ctrl.ListStudentEnrollments)

	faculty := router.Group("/faculty")
	faculty.Get("/", ctrl.ListFaculty)
	faculty.Post("/", ctrl.CreateFaculty)
	faculty.Delete("/:id", ctrl.DeleteFaculty)

	subjects := router.Group("/subjects")
	subjects.Get("/", ctrl.ListSubjects)
	subjects.Post("/", ctrl.CreateSubject)

	assignments := router.Group("/assignments")
	assignments.Get("/", ctrl.ListAssignments)
	assignments.Post("/", ctrl.CreateAssignment)

	enrollments := router.Group("/enrollments")
	enrollments.Post("/", ctrl.Enroll)
	enrollments.Delete("/", ctrl.Unenroll)
}
