package theme

import (
	"reflect"
	"testing"
)

func TestThemesSetEveryRole(t *testing.T) {
	for _, th := range All {
		v := reflect.ValueOf(th)
		for i := 0; i < v.NumField(); i++ {
			if v.Field(i).String() == "" {
				t.Errorf("theme %q leaves %s empty", th.Name, v.Type().Field(i).Name)
			}
		}
	}
}

func TestNamesAndByName(t *testing.T) {
	names := Names()
	if len(names) != len(All) {
		t.Fatalf("Names() = %v, want %d entries", names, len(All))
	}
	seen := map[string]bool{}
	for _, n := range names {
		if seen[n] {
			t.Errorf("duplicate theme name %q", n)
		}
		seen[n] = true
		if got := ByName(n); got.Name != n {
			t.Errorf("ByName(%q) = %q", n, got.Name)
		}
	}
	if got := ByName("solarized"); got.Name != FlexokiDark.Name {
		t.Errorf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}

	defer SetActive(FlexokiDark.Name)
	SetActive("clinic")
	if Active.Name != "clinic" {
		t.Errorf("Active = %q after SetActive(clinic)", Active.Name)
	}
}
