package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vibelabs/vibephoto-backend/internal/dto"
	"github.com/vibelabs/vibephoto-backend/internal/models"
	"github.com/vibelabs/vibephoto-backend/internal/tenant"
	"gorm.io/gorm"
)

var ErrPackageNotFound = errors.New("credit package not found")

// PackageService manages the à la carte credit package catalog and checkouts.
// A checkout only creates a pending purchase; the credits land when the
// gateway webhook confirms the payment.
type PackageService struct {
	db *gorm.DB
}

func NewPackageService(db *gorm.DB) *PackageService {
	return &PackageService{db: db}
}

func (s *PackageService) ListActive(appID string) ([]models.CreditPackage, error) {
	var packages []models.CreditPackage
	err := s.db.Scopes(tenant.ForTenant(appID)).
		Where("is_active = true").
		Order("price_cents ASC").
		Find(&packages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list credit packages: %w", err)
	}
	return packages, nil
}

// Checkout opens a pending purchase for the given package. The purchase ID is
// handed to the payment flow as the external reference the webhook will echo
// back.
func (s *PackageService) Checkout(appID string, userID uuid.UUID, packageID uuid.UUID) (*models.CreditPurchase, error) {
	var pkg models.CreditPackage
	if err := s.db.Scopes(tenant.ForTenant(appID)).
		Where("id = ? AND is_active = true", packageID).
		First(&pkg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load credit package: %w", err)
	}

	purchase := models.CreditPurchase{
		ID:         uuid.New(),
		AppID:      appID,
		UserID:     userID,
		PackageID:  pkg.ID,
		Credits:    pkg.Credits,
		PriceCents: pkg.PriceCents,
		Status:     models.PurchasePending,
	}
	if err := s.db.Create(&purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}
	return &purchase, nil
}

func (s *PackageService) Create(appID string, req *dto.UpsertPackageRequest) (*models.CreditPackage, error) {
	if req.Name == "" || req.Credits <= 0 || req.PriceCents <= 0 {
		return nil, errors.New("name, credits and price_cents are required")
	}

	pkg := models.CreditPackage{
		ID:          uuid.New(),
		AppID:       appID,
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
		PriceCents:  req.PriceCents,
		IsActive:    true,
	}
	if req.Currency != "" {
		pkg.Currency = req.Currency
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}
	if err := s.db.Create(&pkg).Error; err != nil {
		return nil, fmt.Errorf("failed to create credit package: %w", err)
	}
	return &pkg, nil
}

func (s *PackageService) Update(appID string, packageID uuid.UUID, req *dto.UpsertPackageRequest) (*models.CreditPackage, error) {
	var pkg models.CreditPackage
	if err := s.db.Scopes(tenant.ForTenant(appID)).First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to load credit package: %w", err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Credits > 0 {
		updates["credits"] = req.Credits
	}
	if req.PriceCents > 0 {
		updates["price_cents"] = req.PriceCents
	}
	if req.Currency != "" {
		updates["currency"] = req.Currency
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return &pkg, nil
	}
	if err := s.db.Model(&pkg).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update credit package: %w", err)
	}
	return &pkg, nil
}
