package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

type stubTables struct{ status provisioner.Status }

func (s stubTables) CreateTenantTables(_ context.Context, key string) provisioner.Result {
	return provisioner.Result{Status: s.status, Created: s.status == provisioner.StatusCreated, TenantKey: key, Message: string(s.status)}
}

type recordingCache struct{ keys []string }

func (r *recordingCache) ClearCache(key string) { r.keys = append(r.keys, key) }

func newTestApp(status provisioner.Status) (*fiber.App, *repository.MemoryStore, *recordingCache) {
	store := repository.NewMemoryStore()
	cache := &recordingCache{}
	tables := stubTables{status: status}
	onboarder := service.NewOnboarder(store, tables, cache, nil, zap.NewNop())
	ctrl := NewDepartmentController(onboarder, nil, tables, cache, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	app.Post("/departments", ctrl.Create)
	app.Get("/departments", ctrl.List)
	app.Get("/departments/:code/config", ctrl.GetConfig)
	app.Patch("/departments/:id/features/:feature", ctrl.ToggleFeature)
	app.Post("/tenants/:key/tables", ctrl.CreateTables)
	app.Get("/normalize", ctrl.Normalize)
	return app, store, cache
}

func send(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestCreateDepartment_HTTP(t *testing.T) {
	app, _, _ := newTestApp(provisioner.StatusCreated)

	status, body := send(t, app, fiber.MethodPost, "/departments", `{"department_code":"cse (ds)","department_name":"Data Science"}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "CSEDS", data["department_code"])

	status, _ = send(t, app, fiber.MethodPost, "/departments", `{"department_code":"CSE-DS"}`)
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = send(t, app, fiber.MethodPost, "/departments", `{"department_code":"bad;code"}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error_code"])

	status, body = send(t, app, fiber.MethodGet, "/departments", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["count"])
}

func TestCreateDepartment_WithOnboard(t *testing.T) {
	app, store, cache := newTestApp(provisioner.StatusCreated)

	status, body := send(t, app, fiber.MethodPost, "/departments", `{"department_code":"ece","onboard":true}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	onboarding := body["data"].(map[string]any)["onboarding"].(map[string]any)
	assert.Equal(t, true, onboarding["ok"])
	assert.Equal(t, []string{"ECE"}, cache.keys)

	d, err := store.FindDepartmentByCode(context.Background(), "ECE")
	require.NoError(t, err)
	assert.True(t, d.DepartmentIsActive)

	status, body = send(t, app, fiber.MethodGet, "/departments/ece/config", "")
	require.Equal(t, fiber.StatusOK, status)
	tables := body["data"].(map[string]any)["tables"].(map[string]any)
	assert.NotEmpty(t, tables)

	status, _ = send(t, app, fiber.MethodGet, "/departments/MECH/config", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestToggleFeature_HTTP(t *testing.T) {
	app, store, _ := newTestApp(provisioner.StatusCreated)
	_, body := send(t, app, fiber.MethodPost, "/departments", `{"department_code":"IT"}`)
	id := body["data"].(map[string]any)["department_id"].(string)

	status, body := send(t, app, fiber.MethodPatch, "/departments/"+id+"/features/subject_selection", `{"enabled":true}`)
	require.Equal(t, fiber.StatusOK, status, body)
	d, err := store.FindDepartmentByCode(context.Background(), "IT")
	require.NoError(t, err)
	assert.True(t, d.DepartmentAllowSubjectSelection)

	status, _ = send(t, app, fiber.MethodPatch, "/departments/"+id+"/features/teleport", `{"enabled":true}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = send(t, app, fiber.MethodPatch, "/departments/"+id+"/features/active", `{}`)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = send(t, app, fiber.MethodPatch, "/departments/nope/features/active", `{"enabled":false}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCreateTables_HTTP(t *testing.T) {
	app, _, cache := newTestApp(provisioner.StatusCreated)
	status, body := send(t, app, fiber.MethodPost, "/tenants/CSEDS/tables", "")
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "CSEDS", body["data"].(map[string]any)["tenant_key"])
	assert.Equal(t, []string{"CSEDS"}, cache.keys)

	app, _, cache = newTestApp(provisioner.StatusAlreadyExists)
	status, _ = send(t, app, fiber.MethodPost, "/tenants/CSEDS/tables", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Empty(t, cache.keys)

	app, _, _ = newTestApp(provisioner.StatusInvalidKey)
	status, _ = send(t, app, fiber.MethodPost, "/tenants/x/tables", "")
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestNormalize_HTTP(t *testing.T) {
	app, _, _ := newTestApp(provisioner.StatusCreated)
	status, body := send(t, app, fiber.MethodGet, "/normalize?value=CSE-DATASCIENCE", "")
	require.Equal(t, fiber.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "CSEDS", data["tenant_key"])
	assert.Equal(t, true, data["recognized"])
	known := data["known"].([]any)
	assert.Len(t, known, 8)
	assert.Contains(t, known, "CSEDS")
	assert.Equal(t, "CIVIL", known[0])
}

type failingTables struct{}

func (failingTables) CreateTenantTables(_ context.Context, key string) provisioner.Result {
	return provisioner.Result{
		Status:    provisioner.StatusFailed,
		TenantKey: key,
		Message:   "failed to create tables for tenant " + key + ", transaction rolled back: pq: permission denied for schema public",
	}
}

func TestTableFailure_KeepsDriverTextServerSide(t *testing.T) {
	store := repository.NewMemoryStore()
	cache := &recordingCache{}
	onboarder := service.NewOnboarder(store, failingTables{}, cache, nil, zap.NewNop())
	ctrl := NewDepartmentController(onboarder, nil, failingTables{}, cache, zap.NewNop())
	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	app.Post("/departments", ctrl.Create)
	app.Post("/tenants/:key/tables", ctrl.CreateTables)

	status, body := send(t, app, fiber.MethodPost, "/tenants/ece/tables", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, helper.MsgInternalError, body["message"])

	status, body = send(t, app, fiber.MethodPost, "/departments", `{"department_code":"ece","onboard":true}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	onboarding := body["data"].(map[string]any)["onboarding"].(map[string]any)
	assert.Equal(t, "failed", onboarding["tables_status"])
	assert.Equal(t, "tenant table creation failed", onboarding["tables_message"])
	assert.Empty(t, cache.keys)
}
