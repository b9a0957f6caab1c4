package bootstrap

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestBuild_SharesRouterCache(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormLogger.Discard})
	require.NoError(t, err)

	s := Build(db, zap.NewNop(), 0)
	require.NotNil(t, s.Onboarder)
	require.NotNil(t, s.Reconciler)

	s.Router.Cache().GetOrBuild("ECE")
	assert.Equal(t, 1, s.Router.Cache().Len())
	s.Router.ClearCache("ece")
	assert.Zero(t, s.Router.Cache().Len())
}
