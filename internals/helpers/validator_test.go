package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidator_TenantKey(t *testing.T) {
	v := NewValidator()
	type req struct {
		Code string `validate:"required,tenantkey"`
	}
	assert.NoError(t, v.Struct(req{Code: "cse (ds)"}))
	assert.NoError(t, v.Struct(req{Code: "PHYS"}))
	assert.Error(t, v.Struct(req{Code: "drop;table"}))
	assert.Error(t, v.Struct(req{Code: ""}))
}
