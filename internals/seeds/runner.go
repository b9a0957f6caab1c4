package seeds

import (
	"context"

	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	departments "github.com/shahid-afrid/tutorlivework-sub001/internals/seeds/departments"
)

const DefaultDepartmentsFile = "internals/seeds/departments/data_departments.json"

func RunAllSeeds(ctx context.Context, o *service.Onboarder, departmentsFile string, log *zap.Logger) error {
	if departmentsFile == "" {
		departmentsFile = DefaultDepartmentsFile
	}
	_, err := departments.SeedDepartmentsFromJSON(ctx, o, departmentsFile, log)
	return err
}
