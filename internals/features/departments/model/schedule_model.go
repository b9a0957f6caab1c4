package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/normalizer"
)

// FacultySelectionScheduleModel controls when students of a department may pick faculty.
type FacultySelectionScheduleModel struct {
	ScheduleID         uuid.UUID  `gorm:"column:schedule_id;type:uuid;default:gen_random_uuid();primaryKey" json:"schedule_id"`
	ScheduleDepartment string     `gorm:"column:schedule_department;type:varchar(50);not null;uniqueIndex" json:"schedule_department"`
	ScheduleIsEnabled  bool       `gorm:"column:schedule_is_enabled;not null;default:false" json:"schedule_is_enabled"`
	ScheduleUseWindow  bool       `gorm:"column:schedule_use_window;not null;default:false" json:"schedule_use_window"`
	ScheduleStartsAt   *time.Time `gorm:"column:schedule_starts_at" json:"schedule_starts_at,omitempty"`
	ScheduleEndsAt     *time.Time `gorm:"column:schedule_ends_at" json:"schedule_ends_at,omitempty"`
	ScheduleCreatedAt  time.Time  `gorm:"column:schedule_created_at;autoCreateTime" json:"schedule_created_at"`
	ScheduleUpdatedAt  time.Time  `gorm:"column:schedule_updated_at;autoUpdateTime" json:"schedule_updated_at"`
}

func (FacultySelectionScheduleModel) TableName() string {
	return "faculty_selection_schedules"
}

func (s *FacultySelectionScheduleModel) BeforeCreate(tx *gorm.DB) error {
	if s.ScheduleID == uuid.Nil {
		s.ScheduleID = uuid.New()
	}
	return nil
}

func (s *FacultySelectionScheduleModel) BeforeSave(tx *gorm.DB) error {
	s.ScheduleDepartment = normalizer.Normalize(s.ScheduleDepartment)
	return nil
}

// IsOpen reports whether selection is allowed at t.
func (s *FacultySelectionScheduleModel) IsOpen(t time.Time) bool {
	if !s.ScheduleIsEnabled {
		return false
	}
	if !s.ScheduleUseWindow {
		return true
	}
	if s.ScheduleStartsAt != nil && t.Before(*s.ScheduleStartsAt) {
		return false
	}
	if s.ScheduleEndsAt != nil && t.After(*s.ScheduleEndsAt) {
		return false
	}
	return true
}
