package dto

import (
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/model"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/service"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/provisioner"
)

type CreateDepartmentRequest struct {
	DepartmentCode string `json:"department_code" validate:"required,max=50,tenantkey"`
	DepartmentName string `json:"department_name" validate:"omitempty,max=150"`
	// Onboard provisions tables and defaults right after creation.
	Onboard bool `json:"onboard"`
}

func (r CreateDepartmentRequest) ToInput(actor string) service.CreateDepartmentInput {
	return service.CreateDepartmentInput{Code: r.DepartmentCode, Name: r.DepartmentName, Actor: actor}
}

type UpdateDepartmentRequest struct {
	DepartmentName     *string `json:"department_name" validate:"omitempty,min=1,max=150"`
	DepartmentIsActive *bool   `json:"department_is_active"`
}

func (r UpdateDepartmentRequest) ToPatch(actor string) service.DepartmentPatch {
	return service.DepartmentPatch{Name: r.DepartmentName, IsActive: r.DepartmentIsActive, Actor: actor}
}

type ToggleFeatureRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type DepartmentResponse struct {
	DepartmentID                       string `json:"department_id"`
	DepartmentCode                     string `json:"department_code"`
	DepartmentName                     string `json:"department_name"`
	DepartmentIsActive                 bool   `json:"department_is_active"`
	DepartmentAllowStudentRegistration bool   `json:"department_allow_student_registration"`
	DepartmentAllowFacultyAssignment   bool   `json:"department_allow_faculty_assignment"`
	DepartmentAllowSubjectSelection    bool   `json:"department_allow_subject_selection"`
}

func ToDepartmentResponse(d *model.DepartmentModel) DepartmentResponse {
	return DepartmentResponse{
		DepartmentID:                       d.DepartmentID.String(),
		DepartmentCode:                     d.DepartmentCode,
		DepartmentName:                     d.DepartmentName,
		DepartmentIsActive:                 d.DepartmentIsActive,
		DepartmentAllowStudentRegistration: d.DepartmentAllowStudentRegistration,
		DepartmentAllowFacultyAssignment:   d.DepartmentAllowFacultyAssignment,
		DepartmentAllowSubjectSelection:    d.DepartmentAllowSubjectSelection,
	}
}

type OnboardResponse struct {
	Report  *service.OnboardReport `json:"report"`
	OK      bool                   `json:"ok"`
	Tables  string                 `json:"tables_status"`
	Message string                 `json:"tables_message"`
	Error   string                 `json:"error,omitempty"`
}

func ToOnboardResponse(rep *service.OnboardReport) OnboardResponse {
	out := OnboardResponse{
		Report:  rep,
		OK:      rep.OK(),
		Tables:  string(rep.Tables.Status),
		Message: rep.Tables.Message,
	}
	if rep.Err != nil {
		out.Error = rep.Err.Error()
	}
	return out
}

type TablesResponse struct {
	TenantKey string   `json:"tenant_key"`
	Created   bool     `json:"created"`
	Status    string   `json:"status"`
	Message   string   `json:"message"`
	Tables    []string `json:"tables"`
	Errors    []string `json:"errors,omitempty"`
}

func ToTablesResponse(res provisioner.Result) TablesResponse {
	out := TablesResponse{
		TenantKey: res.TenantKey,
		Created:   res.Created,
		Status:    string(res.Status),
		Message:   res.Message,
		Tables:    res.Tables,
	}
	for _, ev := range res.Events {
		if ev.Err != nil {
			out.Errors = append(out.Errors, ev.Table+": "+ev.Err.Error())
		}
	}
	return out
}
