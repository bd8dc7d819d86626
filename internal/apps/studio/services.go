package studio

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/credits"
	"github.com/vibelabs/vibephoto-backend/internal/services"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
	"gorm.io/gorm"
)

var (
	ErrInvalidKind        = errors.New("invalid generation kind")
	ErrPromptRequired     = errors.New("prompt is required")
	ErrGenerationNotFound = errors.New("generation not found")
)

type StudioService struct {
	db         *gorm.DB
	creditsSvc *services.CreditsService
}

func NewStudioService(db *gorm.DB, creditsSvc *services.CreditsService) *StudioService {
	return &StudioService{db: db, creditsSvc: creditsSvc}
}

// CreateGeneration debits the kind's credit cost and enqueues the job. The
// debit happens first, referencing the generation ID; if the record insert
// then fails the debit is refunded so the ledger and the gallery agree.
func (s *StudioService) CreateGeneration(appID string, userID uuid.UUID, req *CreateGenerationRequest) (*Generation, error) {
	cost, ok := GenerationCosts[req.Kind]
	if !ok {
		return nil, ErrInvalidKind
	}
	if req.Prompt == "" {
		return nil, ErrPromptRequired
	}

	gen := Generation{
		ID:         uuid.New(),
		AppID:      appID,
		UserID:     userID,
		Kind:       req.Kind,
		Prompt:     req.Prompt,
		Style:      req.Style,
		Status:     StatusQueued,
		CreditCost: cost,
	}

	if _, err := s.creditsSvc.Consume(appID, userID, cost, gen.ID.String(), fmt.Sprintf("%s generation", req.Kind)); err != nil {
		return nil, err
	}

	if err := s.db.Create(&gen).Error; err != nil {
		if _, refundErr := s.creditsSvc.Refund(appID, userID, cost, gen.ID.String(), "generation enqueue failed"); refundErr != nil {
			slog.Error("failed to refund after generation insert error", "user_id", userID, "generation_id", gen.ID, "error", refundErr)
		}
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	return &gen, nil
}

// ListGenerations returns the user's gallery, newest first.
func (s *StudioService) ListGenerations(appID string, userID uuid.UUID, page, limit int) (*GenerationListResponse, error) {
	page = credits.ClampPage(page)
	limit = credits.ClampLimit(limit)

	var total int64
	s.db.Model(&Generation{}).Scopes(tenant.ForTenant(appID)).Where("user_id = ?", userID).Count(&total)

	var generations []Generation
	err := s.db.Scopes(tenant.ForTenant(appID)).Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&generations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	return &GenerationListResponse{
		Generations: generations,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *StudioService) GetGeneration(appID string, userID uuid.UUID, genID uuid.UUID) (*Generation, error) {
	var gen Generation
	err := s.db.Scopes(tenant.ForTenant(appID)).
		Where("id = ? AND user_id = ?", genID, userID).
		First(&gen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGenerationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load generation: %w", err)
	}
	return &gen, nil
}

// DeleteGeneration soft-deletes a gallery entry only if owned by the user.
// The consumption stays on the ledger; deleting content is not a refund.
func (s *StudioService) DeleteGeneration(appID string, userID uuid.UUID, genID uuid.UUID) error {
	result := s.db.Scopes(tenant.ForTenant(appID)).
		Where("id = ? AND user_id = ?", genID, userID).
		Delete(&Generation{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete generation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGenerationNotFound
	}
	return nil
}

// MarkCompleted records the provider output. Only queued or processing jobs
// transition; replays are no-ops.
func (s *StudioService) MarkCompleted(appID string, genID uuid.UUID, outputURL string) (*Generation, error) {
	res := s.db.Model(&Generation{}).
		Scopes(tenant.ForTenant(appID)).
		Where("id = ? AND status IN ?", genID, []GenerationStatus{StatusQueued, StatusProcessing}).
		Updates(map[string]interface{}{
			"status":     StatusCompleted,
			"output_url": outputURL,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to complete generation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGenerationNotFound
	}

	var gen Generation
	if err := s.db.Scopes(tenant.ForTenant(appID)).First(&gen, "id = ?", genID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload generation: %w", err)
	}
	return &gen, nil
}

// MarkFailed flips the job to failed and refunds its debit. The conditional
// status transition keeps a double fail-report from refunding twice.
func (s *StudioService) MarkFailed(appID string, genID uuid.UUID, reason string) (*Generation, error) {
	var gen Generation
	if err := s.db.Scopes(tenant.ForTenant(appID)).First(&gen, "id = ?", genID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, fmt.Errorf("failed to load generation: %w", err)
	}

	res := s.db.Model(&Generation{}).
		Scopes(tenant.ForTenant(appID)).
		Where("id = ? AND status IN ?", genID, []GenerationStatus{StatusQueued, StatusProcessing}).
		Updates(map[string]interface{}{
			"status":        StatusFailed,
			"error_message": reason,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark generation failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrGenerationNotFound
	}

	if _, err := s.creditsSvc.Refund(appID, gen.UserID, gen.CreditCost, gen.ID.String(), "failed generation refund"); err != nil {
		slog.Error("failed to refund failed generation", "generation_id", gen.ID, "user_id", gen.UserID, "error", err)
	}

	gen.Status = StatusFailed
	gen.ErrorMessage = reason
	return &gen, nil
}
