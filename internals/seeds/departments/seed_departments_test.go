package departments

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
)

type okTables struct{}

func (okTables) CreateTenantTables(_ context.Context, key string) provisioner.Result {
	return provisioner.Result{Status: provisioner.StatusAlreadyExists, TenantKey: key}
}

type noCache struct{}

func (noCache) ClearCache(string) {}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "departments.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestSeedDepartmentsFromJSON(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	o := service.NewOnboarder(store, okTables{}, noCache{}, nil, zap.NewNop())
	path := writeSeed(t, `[
		{"department_code": "CSE(DS)", "department_name": "Data Science", "onboard": true},
		{"department_code": "ECE"},
		{"department_code": "DS", "onboard": true},
		{"department_code": "bad;code"}
	]`)

	sum, err := SeedDepartmentsFromJSON(ctx, o, path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, Summary{Created: 2, Skipped: 1, Onboarded: 2, Failed: 1}, sum)

	d, err := store.FindDepartmentByCode(ctx, "CSEDS")
	require.NoError(t, err)
	assert.True(t, d.DepartmentIsActive)
	e, err := store.FindDepartmentByCode(ctx, "ECE")
	require.NoError(t, err)
	assert.False(t, e.DepartmentIsActive)
}

func TestSeedDepartmentsFromJSON_BadFile(t *testing.T) {
	o := service.NewOnboarder(repository.NewMemoryStore(), okTables{}, noCache{}, nil, zap.NewNop())

	_, err := SeedDepartmentsFromJSON(context.Background(), o, filepath.Join(t.TempDir(), "missing.json"), zap.NewNop())
	assert.Error(t, err)

	_, err = SeedDepartmentsFromJSON(context.Background(), o, writeSeed(t, `{"not":"a list"}`), zap.NewNop())
	assert.Error(t, err)
}
