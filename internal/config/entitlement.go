package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// EntitlementFile is written by the external purchase validator.
const EntitlementFile = "entitlement.json"

// Entitlement is the premium state reported by the purchase validator.
type Entitlement struct {
	Tier      string
	ProductID string
	ExpiresAt time.Time
	Found     bool
}

// Active reports whether the entitlement grants premium at now.
func (e Entitlement) Active(now time.Time) bool {
	if !e.Found || e.Tier != "premium" {
		return false
	}
	return e.ExpiresAt.IsZero() || now.Before(e.ExpiresAt)
}

// DetectEntitlement reads <dataDir>/entitlement.json. A missing or unreadable
// file means no entitlement.
func DetectEntitlement(dataDir string) Entitlement {
	path := filepath.Join(dataDir, EntitlementFile)
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from the configured data dir
	if err != nil {
		return Entitlement{}
	}

	var raw struct {
		Tier      string `json:"tier"`
		ProductID string `json:"productId"`
		ExpiresAt string `json:"expiresAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entitlement{}
	}

	info := Entitlement{Tier: raw.Tier, ProductID: raw.ProductID, Found: true}
	if raw.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, raw.ExpiresAt); err == nil {
			info.ExpiresAt = t
		}
	}
	return info
}
