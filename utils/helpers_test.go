package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("password stored in the clear")
	}
	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := CheckPassword("wrong-pass", hash); err == nil {
		t.Fatalf("wrong password accepted")
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("expected length 32, got %d", len(a))
	}
	b, _ := GenerateRandomString(32)
	if a == b {
		t.Fatalf("two random strings came out identical")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{"admin", "teacher", "student"} {
		if !IsValidRole(role) {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	for _, role := range []string{"Admin", "principal", ""} {
		if IsValidRole(role) {
			t.Fatalf("expected %q to be rejected", role)
		}
	}
}

func TestIsValidFileExtension(t *testing.T) {
	allowed := []string{"csv", "xlsx"}

	tests := []struct {
		filename string
		expected bool
	}{
		{"timetable.csv", true},
		{"timetable.XLSX", true},
		{"timetable.pdf", false},
		{"no-extension", false},
		{"", false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.filename, func(t *testing.T) {
			if got := IsValidFileExtension(tc.filename, allowed); got != tc.expected {
				t.Fatalf("IsValidFileExtension(%q) = %v, want %v", tc.filename, got, tc.expected)
			}
		})
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}
