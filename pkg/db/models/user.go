package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/caremesh/caremesh-backend/pkg/enums"
)

// User is the identity record written by the upstream auth system. This
// service reads it for patient, reviewer and affiliate references only.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string         `gorm:"column:email;not null;unique"`
	FirstName string         `gorm:"column:first_name;not null"`
	LastName  string         `gorm:"column:last_name;not null"`
	Role      enums.UserRole `gorm:"column:role;type:user_role;not null;default:'patient'"`
	State     string         `gorm:"column:state;not null;default:''"`
	ClinicID  *uuid.UUID     `gorm:"column:clinic_id;type:uuid"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
