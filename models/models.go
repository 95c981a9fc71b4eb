package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClassRequest is a student's class application. The container columns are
// jsonb but older clients stored JSON-encoded strings in them, so readers must
// go through normalize.Parse rather than unmarshal them directly.
type ClassRequest struct {
	BaseModel
	Account            datatypes.JSON `json:"account" gorm:"type:jsonb"`
	Basic              datatypes.JSON `json:"basic" gorm:"type:jsonb"`
	Contact            datatypes.JSON `json:"contact" gorm:"type:jsonb"`
	Education          datatypes.JSON `json:"education" gorm:"type:jsonb"`
	ApplicationDetails datatypes.JSON `json:"application_details" gorm:"type:jsonb"`
	AdminFilled        datatypes.JSON `json:"admin_filled" gorm:"type:jsonb"`
	FinalFeePayment    datatypes.JSON `json:"final_fee_payment" gorm:"type:jsonb"`

	// Legacy flat columns, populated by rows written before the containers existed.
	StudentName *string `json:"student_name,omitempty" gorm:"size:255"`
	Email       *string `json:"email,omitempty" gorm:"size:255;index"`
	Phone       *string `json:"phone,omitempty" gorm:"size:50"`
	PhotoURL    *string `json:"photo_url,omitempty" gorm:"type:text"`
}

func (ClassRequest) TableName() string { return "class_requests" }

// WebUser is an account created through the public site.
type WebUser struct {
	BaseModel
	Account     datatypes.JSON `json:"account" gorm:"type:jsonb"`
	Basic       datatypes.JSON `json:"basic" gorm:"type:jsonb"`
	Contact     datatypes.JSON `json:"contact" gorm:"type:jsonb"`
	DisplayName *string        `json:"display_name,omitempty" gorm:"size:255"`
	Email       *string        `json:"email,omitempty" gorm:"size:255;index"`
	PhotoURL    *string        `json:"photo_url,omitempty" gorm:"type:text"`
	Role        string         `json:"role" gorm:"size:50;not null;default:'student'"`
}

func (WebUser) TableName() string { return "web_users" }

// ExamCenter is stored flat; its columns match the import vocabulary.
type ExamCenter struct {
	BaseModel
	ExamType     string         `json:"exam_type" gorm:"size:20;not null;index"`
	State        string         `json:"state" gorm:"size:100;not null;index"`
	City         string         `json:"city" gorm:"size:100;not null"`
	CenterName   string         `json:"center_name" gorm:"size:255;not null"`
	Address      string         `json:"address" gorm:"type:text;not null"`
	Pincode      string         `json:"pincode" gorm:"size:6"`
	Latitude     *float64       `json:"latitude"`
	Longitude    *float64       `json:"longitude"`
	ContactPhone string         `json:"contact_phone" gorm:"size:30"`
	ContactEmail string         `json:"contact_email" gorm:"size:255"`
	Capacity     *int           `json:"capacity"`
	Facilities   pq.StringArray `json:"facilities" gorm:"type:text[]"`
	ExamYears    pq.Int64Array  `json:"exam_years" gorm:"type:bigint[]"`
	IsActive     bool           `json:"is_active" gorm:"not null"`
	Status       string         `json:"status" gorm:"size:20;default:'active'"`
	Landmark     string         `json:"landmark" gorm:"size:255"`
}

func (ExamCenter) TableName() string { return "exam_centers" }

// ActivityLog records an admin write. Actor and resource ids are strings
// because the resources use uuid keys and actors come from the token subject.
type ActivityLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
	UserID     string         `json:"user_id" gorm:"size:100;index"`
	Action     string         `json:"action" gorm:"size:100;not null"`
	Resource   string         `json:"resource" gorm:"size:100;not null"`
	ResourceID string         `json:"resource_id" gorm:"size:100"`
	Details    datatypes.JSON `json:"details" gorm:"type:jsonb"`
	IPAddress  string         `json:"ip_address" gorm:"size:45"`
	UserAgent  string         `json:"user_agent" gorm:"size:500"`
}

// All returns every model for migration.
func All() []interface{} {
	return []interface{}{
		&ClassRequest{},
		&WebUser{},
		&ExamCenter{},
		&ActivityLog{},
	}
}
