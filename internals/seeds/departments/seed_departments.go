package departments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/repository"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
)

// Shape of one entry in the seed file
type DepartmentSeed struct {
	DepartmentCode string `json:"department_code"`
	DepartmentName string `json:"department_name"`
	Onboard        bool   `json:"onboard"`
}

type Summary struct {
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
	Onboarded int `json:"onboarded"`
	Failed    int `json:"failed"`
}

// SeedDepartmentsFromJSON creates every department in filePath that does not
// exist yet. Entries with onboard=true are onboarded, including ones that
// already existed, so a partial earlier run is resumed.
func SeedDepartmentsFromJSON(ctx context.Context, o *service.Onboarder, filePath string, log *zap.Logger) (Summary, error) {
	var sum Summary
	log.Info("reading seed file", zap.String("path", filePath))

	raw, err := os.ReadFile(filePath)
	if err != nil {
		return sum, fmt.Errorf("read seed file: %w", err)
	}
	var seeds []DepartmentSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return sum, fmt.Errorf("decode seed file: %w", err)
	}

	for _, s := range seeds {
		d, err := o.CreateDepartment(ctx, service.CreateDepartmentInput{
			Code:  s.DepartmentCode,
			Name:  s.DepartmentName,
			Actor: "seed",
		})
		switch {
		case err == nil:
			sum.Created++
		case errors.Is(err, repository.ErrDepartmentExists):
			sum.Skipped++
			log.Info("department exists, skipping", zap.String("code", s.DepartmentCode))
			if d, err = o.FindDepartment(ctx, s.DepartmentCode); err != nil {
				sum.Failed++
				continue
			}
		default:
			sum.Failed++
			log.Warn("department seed failed", zap.String("code", s.DepartmentCode), zap.Error(err))
			continue
		}

		if !s.Onboard {
			continue
		}
		if rep := o.Onboard(ctx, d.DepartmentID); rep.OK() {
			sum.Onboarded++
		} else {
			sum.Failed++
			log.Warn("seed onboarding failed",
				zap.String("tenant", rep.TenantKey),
				zap.String("step", string(rep.FailedStep)),
				zap.Error(rep.Err))
		}
	}

	log.Info("department seed finished",
		zap.Int("created", sum.Created),
		zap.Int("skipped", sum.Skipped),
		zap.Int("onboarded", sum.Onboarded),
		zap.Int("failed", sum.Failed))
	return sum, nil
}
