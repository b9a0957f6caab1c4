package controller

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/dto"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/auth"
)

type DepartmentController struct {
	Onboarder  *service.Onboarder
	Reconciler *service.Reconciler
	Tables     service.TableProvisioner
	Cache      service.CacheInvalidator
	Validate   *validator.Validate
	Log        *zap.Logger
}

func NewDepartmentController(o *service.Onboarder, r *service.Reconciler, tables service.TableProvisioner, cache service.CacheInvalidator, log *zap.Logger) *DepartmentController {
	return &DepartmentController{
		Onboarder:  o,
		Reconciler: r,
		Tables:     tables,
		Cache:      cache,
		Validate:   helper.NewValidator(),
		Log:        logger.OrNop(log),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrDepartmentNotFound), errors.Is(err, repository.ErrAdminNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrDepartmentExists):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidDepartmentCode), errors.Is(err, service.ErrUnknownFeature):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// fail answers a service error; 500s are logged and sent without the cause.
func (ctrl *DepartmentController) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return helper.JsonInternalError(c, ctrl.Log, err)
	}
	return helper.JsonError(c, status, err.Error())
}

func parseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" must be a UUID")
	}
	return id, nil
}

// POST /api/sa/departments
func (ctrl *DepartmentController) Create(c *fiber.Ctx) error {
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	ctx := c.UserContext()
	if !req.Onboard {
		d, err := ctrl.Onboarder.CreateDepartment(ctx, req.ToInput(auth.Actor(c)))
		if err != nil {
			return ctrl.fail(c, err)
		}
		return helper.JsonCreated(c, "department created", dto.ToDepartmentResponse(d))
	}

	d, rep, err := ctrl.Onboarder.ProvisionDepartment(ctx, req.ToInput(auth.Actor(c)))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonCreated(c, "department created and onboarded", fiber.Map{
		"department": dto.ToDepartmentResponse(d),
		"onboarding": ctrl.clientOnboardResponse(rep),
	})
}

// GET /api/sa/departments
func (ctrl *DepartmentController) List(c *fiber.Ctx) error {
	rows, err := ctrl.Onboarder.ListDepartments(c.UserContext())
	if err != nil {
		return helper.JsonInternalError(c, ctrl.Log, err)
	}
	out := make([]dto.DepartmentResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToDepartmentResponse(&rows[i]))
	}
	return helper.JsonList(c, "departments", out, len(out))
}

// GET /api/sa/departments/:code/config
func (ctrl *DepartmentController) GetConfig(c *fiber.Ctx) error {
	cfg, ok := ctrl.Onboarder.GetConfiguration(c.UserContext(), c.Params("code"))
	if !ok {
		return helper.JsonError(c, fiber.StatusNotFound, "department not found")
	}
	return helper.JsonOK(c, "department configuration", cfg)
}

// PATCH /api/sa/departments/:id
func (ctrl *DepartmentController) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	d, err := ctrl.Onboarder.UpdateDepartment(c.UserContext(), id, req.ToPatch(auth.Actor(c)))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonUpdated(c, "department updated", dto.ToDepartmentResponse(d))
}

// PATCH /api/sa/departments/:id/features/:feature
func (ctrl *DepartmentController) ToggleFeature(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ToggleFeatureRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	feature := service.Feature(strings.ToLower(c.Params("feature")))
	d, err := ctrl.Onboarder.ToggleFeature(c.UserContext(), id, feature, *req.Enabled, auth.Actor(c))
	if err != nil {
		return ctrl.fail(c, err)
	}
	return helper.JsonUpdated(c, "feature updated", dto.ToDepartmentResponse(d))
}

// POST /api/sa/departments/:id/onboard
func (ctrl *DepartmentController) Onboard(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	rep := ctrl.Onboarder.Onboard(c.UserContext(), id)
	out := ctrl.clientOnboardResponse(rep)
	if !rep.OK() {
		return c.Status(onboardStatus(rep)).JSON(fiber.Map{
			"success": false,
			"message": "onboarding failed at " + string(rep.FailedStep),
			"data":    out,
		})
	}
	return helper.JsonOK(c, "tenant onboarded", out)
}

// onboardStatus is 500 for any failure past loading the department.
func onboardStatus(rep *service.OnboardReport) int {
	if rep.FailedStep == service.StepLoadDepartment {
		return statusFor(rep.Err)
	}
	return fiber.StatusInternalServerError
}

// clientOnboardResponse logs backend failures carried by rep and strips
// their text from what the client sees.
func (ctrl *DepartmentController) clientOnboardResponse(rep *service.OnboardReport) dto.OnboardResponse {
	out := dto.ToOnboardResponse(rep)
	if rep.Tables.Status == provisioner.StatusFailed {
		ctrl.Log.Error("tenant tables failed during onboarding",
			zap.String("tenant", rep.TenantKey),
			zap.String("detail", rep.Tables.Message))
		out.Message = "tenant table creation failed"
	}
	if !rep.OK() && onboardStatus(rep) == fiber.StatusInternalServerError {
		ctrl.Log.Error("onboarding failed",
			zap.String("tenant", rep.TenantKey),
			zap.String("step", string(rep.FailedStep)),
			zap.Error(rep.Err))
		out.Error = helper.MsgInternalError
	}
	return out
}

// POST /api/sa/departments/:id/admins/:adminId
func (ctrl *DepartmentController) GrantAdmin(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	adminID, err := parseID(c, "adminId")
	if err != nil {
		return err
	}
	if !ctrl.Onboarder.GrantAdminAccess(c.UserContext(), adminID, id) {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "admin access could not be granted")
	}
	return helper.JsonOK(c, "admin access granted", fiber.Map{"admin_id": adminID, "department_id": id})
}

// POST /api/sa/tenants/:key/tables
func (ctrl *DepartmentController) CreateTables(c *fiber.Ctx) error {
	res := ctrl.Tables.CreateTenantTables(c.UserContext(), c.Params("key"))
	switch res.Status {
	case provisioner.StatusCreated:
		if ctrl.Cache != nil {
			ctrl.Cache.ClearCache(res.TenantKey)
		}
		return helper.JsonCreated(c, res.Message, dto.ToTablesResponse(res))
	case provisioner.StatusAlreadyExists:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": res.Message, "data": dto.ToTablesResponse(res)})
	case provisioner.StatusInvalidKey:
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, res.Message)
	default:
		return helper.JsonInternalError(c, ctrl.Log.With(zap.String("tenant", res.TenantKey)), errors.New(res.Message))
	}
}

// GET /api/sa/mismatches
func (ctrl *DepartmentController) ListMismatches(c *fiber.Ctx) error {
	counts, err := ctrl.Reconciler.FindMismatches(c.UserContext())
	if err != nil {
		return helper.JsonInternalError(c, ctrl.Log, err)
	}
	return helper.JsonOK(c, "department mismatches", counts)
}

// POST /api/sa/mismatches/fix
func (ctrl *DepartmentController) FixMismatches(c *fiber.Ctx) error {
	fixed, err := ctrl.Reconciler.FixMismatches(c.UserContext())
	if err != nil {
		ctrl.Log.Error("mismatch fix incomplete", zap.Error(err))
		return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
			"success": false,
			"message": "some department values could not be normalized",
			"data":    fixed,
		})
	}
	return helper.JsonOK(c, "department values normalized", fixed)
}

// GET /api/sa/normalize?value=
func (ctrl *DepartmentController) Normalize(c *fiber.Ctx) error {
	raw := c.Query("value")
	key := normalizer.Normalize(raw)
	known := normalizer.Known()
	sort.Strings(known)
	return helper.JsonOK(c, "normalized", fiber.Map{
		"input":         raw,
		"tenant_key":    key,
		"recognized":    normalizer.IsValidDepartment(raw),
		"provisionable": normalizer.IsProvisionable(key),
		"known":         known,
	})
}
