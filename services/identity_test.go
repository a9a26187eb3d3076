package services

import (
	"testing"

	"classtrack_go/models"
)

func TestResolveStudentRef(t *testing.T) {
	tests := []struct {
		name     string
		ref      string
		expected CanonicalID
		ok       bool
	}{
		{
			name:     "plain string id",
			ref:      `"64f1c2aa91"`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "object with _id",
			ref:      `{"_id": "64f1c2aa91", "name": "Anita"}`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "object with id fallback",
			ref:      `{"id": "64f1c2aa91"}`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "_id preferred over id",
			ref:      `{"_id": "primary", "id": "secondary"}`,
			expected: "primary",
			ok:       true,
		},
		{
			name:     "extended oid form",
			ref:      `{"_id": {"$oid": "64f1c2aa91"}}`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "objectid wrapper in a string",
			ref:      `"ObjectId('64f1c2aa91')"`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "objectid wrapper double quoted",
			ref:      `"ObjectId(\"64f1c2aa91\")"`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "unquoted objectid wrapper",
			ref:      `ObjectId('64f1c2aa91')`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "serialized object string",
			ref:      `"{\"_id\": \"64f1c2aa91\"}"`,
			expected: "64f1c2aa91",
			ok:       true,
		},
		{
			name:     "numeric id preserved",
			ref:      `42`,
			expected: "42",
			ok:       true,
		},
		{
			name:     "large numeric id not mangled by float conversion",
			ref:      `9007199254740993`,
			expected: "9007199254740993",
			ok:       true,
		},
		{
			name: "null reference skipped",
			ref:  `null`,
			ok:   false,
		},
		{
			name: "empty string skipped",
			ref:  `""`,
			ok:   false,
		},
		{
			name: "array reference skipped",
			ref:  `["64f1c2aa91"]`,
			ok:   false,
		},
		{
			name: "object without identifier skipped",
			ref:  `{"name": "Anita"}`,
			ok:   false,
		},
		{
			name:     "unparseable brace string kept raw",
			ref:      `"{not json"`,
			expected: "{not json",
			ok:       true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveStudentRef(models.JSON(tc.ref))
			if ok != tc.ok {
				t.Fatalf("ResolveStudentRef(%s) ok = %v, want %v", tc.ref, ok, tc.ok)
			}
			if ok && got != tc.expected {
				t.Fatalf("ResolveStudentRef(%s) = %q, want %q", tc.ref, got, tc.expected)
			}
		})
	}
}

// Every encoding of the same underlying id must resolve to the same
// canonical id, otherwise the attendance matrix splits one student into
// several rows.
func TestResolveStudentRefEncodingsAgree(t *testing.T) {
	encodings := []string{
		`"64f1c2aa91"`,
		`{"_id": "64f1c2aa91"}`,
		`{"id": "64f1c2aa91"}`,
		`{"_id": {"$oid": "64f1c2aa91"}}`,
		`"ObjectId('64f1c2aa91')"`,
		`"{\"_id\": \"64f1c2aa91\"}"`,
	}

	for _, enc := range encodings {
		id, ok := ResolveStudentRef(models.JSON(enc))
		if !ok {
			t.Fatalf("encoding %s did not resolve", enc)
		}
		if id != "64f1c2aa91" {
			t.Fatalf("encoding %s resolved to %q", enc, id)
		}
	}
}

func TestResolveStudentRefNilBytes(t *testing.T) {
	if _, ok := ResolveStudentRef(nil); ok {
		t.Fatalf("nil reference must not resolve")
	}
}
