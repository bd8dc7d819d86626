package tenant

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vibelabs/vibephoto-backend/internal/models"
)

const testAppsJSON = `{
  "apps": [
    {
      "app_id": "vibephoto",
      "app_name": "VibePhoto",
      "webhook_auth": "secret-token",
      "plans": [
        { "product_id": "prod_monthly", "plan": "monthly", "credits": 100 },
        { "product_id": "prod_yearly", "plan": "yearly", "credits": 1200 }
      ],
      "features": { "video": true }
    }
  ]
}`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apps.json")
	assert.NoError(t, os.WriteFile(path, []byte(testAppsJSON), 0o600))

	registry, err := LoadFromFile(path)
	assert.NoError(t, err)
	return registry
}

func TestLoadFromFile(t *testing.T) {
	registry := loadTestRegistry(t)

	assert.True(t, registry.Exists("vibephoto"))
	assert.False(t, registry.Exists("unknown"))
	assert.Len(t, registry.All(), 1)
	assert.Equal(t, "VibePhoto", registry.Get("vibephoto").AppName)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestPlanForProduct(t *testing.T) {
	registry := loadTestRegistry(t)

	plan, ok := registry.PlanForProduct("vibephoto", "prod_monthly")
	assert.True(t, ok)
	assert.Equal(t, models.PlanMonthly, plan.Plan)
	assert.Equal(t, 100, plan.Credits)

	_, ok = registry.PlanForProduct("vibephoto", "prod_unknown")
	assert.False(t, ok)

	_, ok = registry.PlanForProduct("unknown", "prod_monthly")
	assert.False(t, ok)
}

func TestWebhookAuthAndFeatures(t *testing.T) {
	registry := loadTestRegistry(t)

	assert.Equal(t, "secret-token", registry.GetWebhookAuth("vibephoto"))
	assert.Equal(t, "", registry.GetWebhookAuth("unknown"))

	assert.True(t, registry.HasFeature("vibephoto", "video"))
	assert.False(t, registry.HasFeature("vibephoto", "studio"))
	assert.False(t, registry.HasFeature("unknown", "video"))
}
