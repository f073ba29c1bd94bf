package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
    key                  TEXT PRIMARY KEY,
    value                BLOB NOT NULL,
    updated_at           TEXT NOT NULL
);
`

// Fixed keys under which the collections are stored as whole JSON blobs.
const (
	KeyProducts           = "products"
	KeyInventory          = "inventory"
	KeyDoseLogs           = "dose_logs"
	KeyScheduledDoses     = "scheduled_doses"
	KeyUserProfile        = "user_profile"
	KeyOnboardingComplete = "onboarding_complete"
	KeyDisclaimerAccepted = "disclaimer_accepted"
)

// Keys lists every key the store reads or writes, in backup order.
var Keys = []string{
	KeyProducts,
	KeyInventory,
	KeyDoseLogs,
	KeyScheduledDoses,
	KeyUserProfile,
	KeyOnboardingComplete,
	KeyDisclaimerAccepted,
}

// DBFileName is the database file inside the data directory.
const DBFileName = "nexus.db"
