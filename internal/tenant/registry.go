package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vibelabs/vibephoto-backend/internal/models"
)

// PlanConfig maps a payment-gateway product to the credit allowance it grants
// each billing cycle.
type PlanConfig struct {
	ProductID string                  `json:"product_id"`
	Plan      models.SubscriptionPlan `json:"plan"`
	Credits   int                     `json:"credits"`
}

type AppConfig struct {
	AppID   string `json:"app_id"`
	AppName string `json:"app_name"`
	// Shared secret the payment gateway sends in its webhook requests.
	WebhookAuth string          `json:"webhook_auth"`
	Plans       []PlanConfig    `json:"plans"`
	Features    map[string]bool `json:"features"`
}

type AppsFile struct {
	Apps []AppConfig `json:"apps"`
}

// Registry holds the configuration of every white-label app this backend
// serves.
type Registry struct {
	mu   sync.RWMutex
	apps map[string]*AppConfig
}

func NewRegistry() *Registry {
	return &Registry{
		apps: make(map[string]*AppConfig),
	}
}

func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps config: %w", err)
	}

	var file AppsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse apps config: %w", err)
	}

	registry := NewRegistry()
	for i := range file.Apps {
		registry.Register(&file.Apps[i])
	}
	return registry, nil
}

func (r *Registry) Register(cfg *AppConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[cfg.AppID] = cfg
}

func (r *Registry) Get(appID string) *AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.apps[appID]
}

func (r *Registry) Exists(appID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.apps[appID]
	return ok
}

func (r *Registry) All() []*AppConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	apps := make([]*AppConfig, 0, len(r.apps))
	for _, cfg := range r.apps {
		apps = append(apps, cfg)
	}
	return apps
}

func (r *Registry) GetWebhookAuth(appID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.apps[appID]; ok {
		return cfg.WebhookAuth
	}
	return ""
}

// PlanForProduct resolves a gateway product ID to its plan configuration.
func (r *Registry) PlanForProduct(appID, productID string) (PlanConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.apps[appID]
	if !ok {
		return PlanConfig{}, false
	}
	for _, plan := range cfg.Plans {
		if plan.ProductID == productID {
			return plan, true
		}
	}
	return PlanConfig{}, false
}

func (r *Registry) HasFeature(appID, feature string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.apps[appID]
	if !ok {
		return false
	}
	return cfg.Features[feature]
}
