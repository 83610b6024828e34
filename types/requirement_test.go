package types

import "testing"

func TestParseRequirement_NameOnly(t *testing.T) {
	r, err := ParseRequirement("wheel")
	if err != nil {
		t.Fatalf("ParseRequirement failed: %v", err)
	}
	if r.Name != "wheel" {
		t.Errorf("Name = %q, want %q", r.Name, "wheel")
	}
	if r.Specifier != "" || r.Marker != "" || len(r.Extras) != 0 {
		t.Errorf("unexpected extras/specifier/marker: %+v", r)
	}
	if got := r.String(); got != "wheel" {
		t.Errorf("String() = %q, want %q", got, "wheel")
	}
}

func TestParseRequirement_Specifier(t *testing.T) {
	r, err := ParseRequirement("setuptools >= 40.8.0")
	if err != nil {
		t.Fatalf("ParseRequirement failed: %v", err)
	}
	if r.Name != "setuptools" {
		t.Errorf("Name = %q, want %q", r.Name, "setuptools")
	}
	if r.Specifier != ">= 40.8.0" {
		t.Errorf("Specifier = %q, want %q", r.Specifier, ">= 40.8.0")
	}
}

func TestParseRequirement_ExtrasAndMarker(t *testing.T) {
	r, err := ParseRequirement(`build[virtualenv]>=1.0; python_version < "3.11"`)
	if err != nil {
		t.Fatalf("ParseRequirement failed: %v", err)
	}
	if r.Name != "build" {
		t.Errorf("Name = %q, want %q", r.Name, "build")
	}
	if len(r.Extras) != 1 || r.Extras[0] != "virtualenv" {
		t.Errorf("Extras = %v, want [virtualenv]", r.Extras)
	}
	if r.Specifier != ">=1.0" {
		t.Errorf("Specifier = %q, want %q", r.Specifier, ">=1.0")
	}
	if r.Marker != `python_version < "3.11"` {
		t.Errorf("Marker = %q", r.Marker)
	}
	want := `build[virtualenv]>=1.0; python_version < "3.11"`
	if got := r.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseRequirement_ParenthesizedSpecifier(t *testing.T) {
	r, err := ParseRequirement("tomli (>=1.1.0)")
	if err != nil {
		t.Fatalf("ParseRequirement failed: %v", err)
	}
	if r.Specifier != ">=1.1.0" {
		t.Errorf("Specifier = %q, want %q", r.Specifier, ">=1.1.0")
	}
}

func TestParseRequirement_Invalid(t *testing.T) {
	for _, spec := range []string{"", "   ", ">=1.0", "pkg[", "pkg[a,]", "pkg ;"} {
		if _, err := ParseRequirement(spec); err == nil {
			t.Errorf("ParseRequirement(%q) succeeded, want error", spec)
		}
	}
}

func TestParseRequirements_StopsOnFirstError(t *testing.T) {
	_, err := ParseRequirements([]string{"a==1", "[bad"})
	if err == nil {
		t.Fatal("ParseRequirements succeeded, want error")
	}
}

func TestParseRequirements_Empty(t *testing.T) {
	got, err := ParseRequirements(nil)
	if err != nil {
		t.Fatalf("ParseRequirements failed: %v", err)
	}
	if got != nil {
		t.Errorf("ParseRequirements(nil) = %v, want nil", got)
	}
}
