package entity

import (
	"time"

	"genie-storefront-assistant/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stored injection_method values, kept compatible with records written by earlier deployments
const (
	injectionScriptTag      = "script_tag"
	injectionThemeInjection = "theme_injection"
)

// MongoScriptDoc represents a widget installation in MongoDB
type MongoScriptDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Domain          string             `bson:"shopify_domain"`
	ScriptContent   string             `bson:"script_content"`
	ScriptURL       string             `bson:"script_url"`
	ScriptTagID     string             `bson:"script_tag_id,omitempty"`
	InjectionMethod string             `bson:"injection_method"`
	Status          string             `bson:"status"`
	IsActive        bool               `bson:"is_active"`
	GeneratedAt     time.Time          `bson:"generated_at"`
	LastUpdated     time.Time          `bson:"last_updated"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoScriptDoc) ToDomain() *domain.WidgetInstallation {
	status := domain.InstallStatus(d.Status)
	if status == "" {
		status = domain.StatusInactive
		if d.IsActive {
			status = domain.StatusActive
		}
	}
	return &domain.WidgetInstallation{
		ShopDomain:  d.Domain,
		Mechanism:   mechanismFromStored(d.InjectionMethod),
		ExternalID:  d.ScriptTagID,
		Status:      status,
		ScriptURL:   d.ScriptURL,
		Snippet:     d.ScriptContent,
		GeneratedAt: d.GeneratedAt,
		UpdatedAt:   d.LastUpdated,
	}
}

// MongoScriptDocFromDomain converts a domain entity to a MongoDB document
func MongoScriptDocFromDomain(w *domain.WidgetInstallation) *MongoScriptDoc {
	return &MongoScriptDoc{
		Domain:          w.ShopDomain,
		ScriptContent:   w.Snippet,
		ScriptURL:       w.ScriptURL,
		ScriptTagID:     w.ExternalID,
		InjectionMethod: mechanismToStored(w.Mechanism),
		Status:          string(w.Status),
		IsActive:        w.Status == domain.StatusActive,
		GeneratedAt:     w.GeneratedAt,
		LastUpdated:     w.UpdatedAt,
	}
}

func mechanismToStored(m domain.InstallMechanism) string {
	if m == domain.MechanismAssetInjection {
		return injectionThemeInjection
	}
	return injectionScriptTag
}

func mechanismFromStored(s string) domain.InstallMechanism {
	if s == injectionThemeInjection {
		return domain.MechanismAssetInjection
	}
	return domain.MechanismPlatformHook
}
