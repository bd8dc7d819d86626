package studio

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GenerationKind string

const (
	KindPhoto GenerationKind = "photo"
	KindVideo GenerationKind = "video"
)

type GenerationStatus string

const (
	StatusQueued     GenerationStatus = "queued"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

// Credits debited per generation kind.
var GenerationCosts = map[GenerationKind]int{
	KindPhoto: 1,
	KindVideo: 10,
}

// Generation is one AI photo/video job and its gallery entry. The actual
// provider call happens out of process; this record tracks status and the
// credit debit tied to it.
type Generation struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID        string           `gorm:"size:50;not null;index" json:"-"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind         GenerationKind   `gorm:"size:10;not null" json:"kind"`
	Prompt       string           `gorm:"type:text;not null" json:"prompt"`
	Style        string           `gorm:"size:50" json:"style,omitempty"`
	Status       GenerationStatus `gorm:"size:20;not null;default:'queued';index" json:"status"`
	OutputURL    string           `gorm:"type:text" json:"output_url,omitempty"`
	CreditCost   int              `gorm:"not null" json:"credit_cost"`
	ErrorMessage string           `gorm:"size:500" json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}

// --- DTOs ---

type CreateGenerationRequest struct {
	Kind   GenerationKind `json:"kind"`
	Prompt string         `json:"prompt"`
	Style  string         `json:"style"`
}

type CompleteGenerationRequest struct {
	OutputURL string `json:"output_url"`
}

type FailGenerationRequest struct {
	Reason string `json:"reason"`
}

type GenerationListResponse struct {
	Generations []Generation `json:"generations"`
	Total       int64        `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}
