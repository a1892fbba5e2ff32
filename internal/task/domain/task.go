package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskStatus represents the lifecycle state of a service engagement
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusConfirmed TaskStatus = "confirmed"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// PaymentStatus is the task-level view of the money movement
type PaymentStatus string

const (
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Task represents one bookable service engagement between a customer and a handyman.
// TotalAmount is fixed at booking and only ever grows through additional charges.
type Task struct {
	ID     string `json:"id" gorm:"primaryKey"`
	TaskID string `json:"task_id" gorm:"uniqueIndex;not null"` // Human-facing booking number

	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone" gorm:"not null"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`

	TaskCategory    string     `json:"task_category"`
	TaskDescription string     `json:"task_description"`
	ScheduledDate   *time.Time `json:"scheduled_date,omitempty" gorm:"type:date"`
	TimeWindow      string     `json:"time_window"`
	EstimatedHours  *float64   `json:"estimated_hours,omitempty"`
	Notes           string     `json:"notes,omitempty"`

	TotalAmount               decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	AdditionalMaterialsCost   decimal.Decimal `json:"additional_materials_cost" gorm:"type:numeric(12,2);not null;default:0"`
	AdditionalPaymentIntentID *string         `json:"additional_payment_intent_id,omitempty"`

	Status            TaskStatus    `json:"status" gorm:"index;default:pending"`
	PaymentStatus     PaymentStatus `json:"payment_status" gorm:"default:authorized"`
	PaymentCapturedAt *time.Time    `json:"payment_captured_at,omitempty"`
	// Hold captured for this task, set together with payment_status=captured
	PaymentIntentID *string `json:"payment_intent_id,omitempty"`

	// Dispatch fields, filled when a handyman is assigned
	ScheduledDatetime     *time.Time `json:"scheduled_datetime,omitempty"`
	AssignedHandymanName  *string    `json:"assigned_handyman_name,omitempty"`
	AssignedHandymanPhone *string    `json:"assigned_handyman_phone,omitempty"`

	// Owned by the reminder sweep
	Reminder2hrSent     bool       `json:"reminder_2hr_sent" gorm:"column:reminder_2hr_sent;default:false"`
	Reminder2hrSentAt   *time.Time `json:"reminder_2hr_sent_at,omitempty" gorm:"column:reminder_2hr_sent_at"`
	Reminder30minSent   bool       `json:"reminder_30min_sent" gorm:"column:reminder_30min_sent;default:false"`
	Reminder30minSentAt *time.Time `json:"reminder_30min_sent_at,omitempty" gorm:"column:reminder_30min_sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPatch is a partial update of a task. Nil fields are left untouched.
type TaskPatch struct {
	Status            *TaskStatus
	PaymentStatus     *PaymentStatus
	PaymentCapturedAt *time.Time
	PaymentIntentID   *string
}

// Columns returns the column/value pairs to write.
func (p TaskPatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Status != nil {
		cols["status"] = *p.Status
	}
	if p.PaymentStatus != nil {
		cols["payment_status"] = *p.PaymentStatus
	}
	if p.PaymentCapturedAt != nil {
		cols["payment_captured_at"] = *p.PaymentCapturedAt
	}
	if p.PaymentIntentID != nil {
		cols["payment_intent_id"] = *p.PaymentIntentID
	}
	return cols
}

// Apply copies the set fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		t.PaymentStatus = *p.PaymentStatus
	}
	if p.PaymentCapturedAt != nil {
		at := *p.PaymentCapturedAt
		t.PaymentCapturedAt = &at
	}
	if p.PaymentIntentID != nil {
		id := *p.PaymentIntentID
		t.PaymentIntentID = &id
	}
}

// CapturedPatch marks a task completed with holdID captured at the given time.
func CapturedPatch(holdID string, at time.Time) TaskPatch {
	status := TaskStatusCompleted
	paymentStatus := PaymentStatusCaptured
	patch := TaskPatch{
		Status:            &status,
		PaymentStatus:     &paymentStatus,
		PaymentCapturedAt: &at,
	}
	if holdID != "" {
		patch.PaymentIntentID = &holdID
	}
	return patch
}

// CapturedIntentID returns the captured hold reference, or "" when the task
// has not been marked captured.
func (t *Task) CapturedIntentID() string {
	if t.PaymentStatus != PaymentStatusCaptured || t.PaymentIntentID == nil {
		return ""
	}
	return *t.PaymentIntentID
}
