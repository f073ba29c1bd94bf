package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// Backup is the export file format: store keys mapped to their raw blobs.
type Backup map[string]json.RawMessage

// Export writes every present key as one JSON object.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	backup := make(Backup, len(Keys))
	for _, key := range Keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			backup[key] = json.RawMessage(raw)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// Import replaces the stored keys with the ones in a backup. Every blob is
// decoded against its type before anything is written; unknown keys are
// rejected. Products are normalized. Keys absent from the backup are left
// untouched, and the present ones are written together or not at all.
func (s *Store) Import(ctx context.Context, r io.Reader) error {
	var backup Backup
	dec := json.NewDecoder(r)
	if err := dec.Decode(&backup); err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}

	for key, raw := range backup {
		if err := validateBlob(key, raw); err != nil {
			return err
		}
	}

	b := batch{}
	for _, key := range Keys {
		raw, ok := backup[key]
		if !ok {
			continue
		}
		if key == KeyProducts {
			var products []model.Product
			if err := json.Unmarshal(raw, &products); err != nil {
				return fmt.Errorf("invalid %s in backup: %w", key, err)
			}
			for i := range products {
				products[i].Normalize()
			}
			if err := b.add(key, products); err != nil {
				return err
			}
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return fmt.Errorf("compacting %s: %w", key, err)
		}
		b[key] = buf.Bytes()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return b.commit(ctx, s.kv)
}

func validateBlob(key string, raw json.RawMessage) error {
	var target any
	switch key {
	case KeyProducts:
		target = &[]model.Product{}
	case KeyInventory:
		target = &[]model.Inventory{}
	case KeyDoseLogs:
		target = &[]model.DoseLog{}
	case KeyScheduledDoses:
		target = &[]model.ScheduledDose{}
	case KeyUserProfile:
		target = &model.UserProfile{}
	case KeyOnboardingComplete, KeyDisclaimerAccepted:
		target = new(bool)
	default:
		return fmt.Errorf("unknown backup key %q", key)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid %s in backup: %w", key, err)
	}
	return nil
}
