package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"classtrack_go/models"
)

// CanonicalID is the single normalized form of a student reference.
// Attendance aggregation compares canonical ids only; no call site parses
// a student reference on its own.
type CanonicalID string

func (c CanonicalID) String() string { return string(c) }

// objectIDWrapper matches the stringified driver form ObjectId('...') /
// ObjectId("...") that older attendance records carry.
var objectIDWrapper = regexp.MustCompile(`^\s*ObjectId\((['"])(.+?)['"]\)\s*$`)

// ResolveStudentRef normalizes a student reference into a canonical id.
// Historical records encode the reference in several shapes:
//
//  1. a structured object with an "_id" (or "id") field,
//  2. a string embedding the ObjectId('<id>') wrapper,
//  3. a string that is itself a serialized JSON object,
//  4. a plain string or numeric scalar,
//  5. null/absent, in which case ok is false and the record is skipped.
//
// Two encodings of the same underlying id always resolve to string-equal
// canonical ids. The function is deterministic and side-effect-free.
func ResolveStudentRef(ref models.JSON) (CanonicalID, bool) {
	if ref.IsNull() {
		return "", false
	}

	dec := json.NewDecoder(bytes.NewReader(ref))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		// Not valid JSON at all: some rows store the wrapper or raw id
		// without quoting. Treat the bytes as the string form.
		return resolveString(strings.TrimSpace(string(ref)))
	}
	return resolveValue(value)
}

func resolveValue(value interface{}) (CanonicalID, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case map[string]interface{}:
		return resolveIdentifierField(v)
	case string:
		return resolveString(v)
	case json.Number:
		return CanonicalID(v.String()), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}

// resolveIdentifierField extracts the identifier field from a structured
// reference object.
func resolveIdentifierField(obj map[string]interface{}) (CanonicalID, bool) {
	for _, key := range []string{"_id", "id"} {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		// Extended forms nest the id one level deeper, e.g. {"_id": {"$oid": "..."}}.
		if m, ok := inner.(map[string]interface{}); ok {
			if oid, ok := m["$oid"]; ok {
				inner = oid
			}
		}
		return resolveValue(inner)
	}
	return "", false
}

func resolveString(s string) (CanonicalID, bool) {
	if s == "" {
		return "", false
	}
	if m := objectIDWrapper.FindStringSubmatch(s); m != nil {
		return CanonicalID(m[2]), true
	}
	if strings.HasPrefix(strings.TrimSpace(s), "{") {
		// A serialized object string. Parse and extract; on failure the
		// raw string is used as-is, matching how downstream joins treated
		// these rows historically.
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var obj map[string]interface{}
		if err := dec.Decode(&obj); err == nil {
			if id, ok := resolveIdentifierField(obj); ok {
				return id, true
			}
		}
		return CanonicalID(s), true
	}
	return CanonicalID(s), true
}
