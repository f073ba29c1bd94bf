package premium

import (
	"errors"
	"testing"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

func TestCheckAddProduct(t *testing.T) {
	free := &model.UserProfile{}
	paid := &model.UserProfile{Premium: true}

	tests := []struct {
		name     string
		profile  *model.UserProfile
		existing int
		wantErr  bool
	}{
		{"no profile under limit", nil, 2, false},
		{"no profile at limit", nil, 3, true},
		{"free under limit", free, 0, false},
		{"free at limit", free, FreeProductLimit, true},
		{"free over limit", free, 10, true},
		{"premium over limit", paid, 50, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAddProduct(tt.profile, tt.existing)
			if tt.wantErr {
				if !errors.Is(err, ErrPremiumRequired) {
					t.Fatalf("CheckAddProduct() = %v, want ErrPremiumRequired", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckAddProduct() = %v, want nil", err)
			}
		})
	}
}

func TestAllows(t *testing.T) {
	free := &model.UserProfile{}
	paid := &model.UserProfile{Premium: true}

	for _, f := range Features {
		if Allows(free, f) {
			t.Errorf("Allows(free, %s) = true", f)
		}
		if !Allows(paid, f) {
			t.Errorf("Allows(premium, %s) = false", f)
		}
		if err := Require(free, f); !errors.Is(err, ErrPremiumRequired) {
			t.Errorf("Require(free, %s) = %v", f, err)
		}
	}
	if !Allows(nil, Feature("today")) {
		t.Error("ungated feature should always be allowed")
	}
}

func TestHistorySince(t *testing.T) {
	now := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC)

	got := HistorySince(nil, now)
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("HistorySince(free) = %v, want %v", got, want)
	}
	if got := HistorySince(&model.UserProfile{Premium: true}, now); !got.IsZero() {
		t.Errorf("HistorySince(premium) = %v, want zero", got)
	}
}

func TestRemainingProducts(t *testing.T) {
	if got := RemainingProducts(nil, 1); got != 2 {
		t.Errorf("RemainingProducts(free, 1) = %d, want 2", got)
	}
	if got := RemainingProducts(nil, 7); got != 0 {
		t.Errorf("RemainingProducts(free, 7) = %d, want 0", got)
	}
	if got := RemainingProducts(&model.UserProfile{Premium: true}, 7); got != -1 {
		t.Errorf("RemainingProducts(premium, 7) = %d, want -1", got)
	}
}
