package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fleetops/fueltrack/internal/models"
)

// Field values never shown in summaries, regardless of table or action.
var sensitiveFields = map[string]bool{
	"password":             true,
	"password_hash":        true,
	"signature_image_path": true,
}

// Strings at or beyond this length are assumed to be payloads (signature
// images, blobs) and are excluded from create/delete field listings.
const longValueLimit = 40

var actionVerbs = map[string]string{
	models.AuditActionCreate: "Created",
	models.AuditActionUpdate: "Updated",
	models.AuditActionDelete: "Deleted",
	models.AuditActionView:   "Viewed",
}

// snapshot is a parsed old/new value. A payload that is not a JSON object
// (malformed or scalar) is treated as opaque: no field-level detail is
// rendered from it, but summarization never fails.
type snapshot struct {
	fields map[string]any
	ok     bool // fields is usable
}

func parseSnapshot(raw []byte) snapshot {
	if len(raw) == 0 {
		return snapshot{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return snapshot{fields: m, ok: true}
	}
	// maybe a double-encoded object
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return snapshot{fields: m, ok: true}
		}
	}
	return snapshot{}
}

type renderKey struct {
	action string
	table  string
}

// Per-(action, table) rendering strategies. Unknown combinations fall back to
// the generic "{Verb} {table} record" phrasing.
var renderers = map[renderKey]func(prev, next snapshot) string{
	{models.AuditActionCreate, models.TableDieselReceiving}: func(_, n snapshot) string {
		return fmt.Sprintf("Received %s L of diesel (receipt %s)", field(n, "quantity_liters"), field(n, "receipt_number"))
	},
	{models.AuditActionCreate, models.TableDieselConsumption}: func(_, n snapshot) string {
		return fmt.Sprintf("Issued %s L of diesel", field(n, "quantity_liters"))
	},
	{models.AuditActionCreate, models.TableInvoices}: func(_, n snapshot) string {
		return fmt.Sprintf("Created invoice %s", field(n, "invoice_number"))
	},
	{models.AuditActionCreate, models.TableUsers}: func(_, n snapshot) string {
		return fmt.Sprintf("Created user %s", field(n, "employee_name"))
	},
	{models.AuditActionCreate, models.TableTanks}: func(_, n snapshot) string {
		return fmt.Sprintf("Added tank %s (capacity %s L)", field(n, "tank_name"), field(n, "capacity_liters"))
	},
	{models.AuditActionCreate, models.TableSites}: func(_, n snapshot) string {
		return fmt.Sprintf("Added site %s", field(n, "site_name"))
	},
	{models.AuditActionCreate, models.TableVehicles}: func(_, n snapshot) string {
		return fmt.Sprintf("Added vehicle %s", field(n, "vehicle_number"))
	},
	{models.AuditActionView, models.TableReports}: func(_, _ snapshot) string {
		return "Generated monthly fuel report"
	},
}

// Summarize renders an audit entry into a one-line human-readable
// description. Pure and deterministic; never panics on malformed snapshots.
func Summarize(e models.AuditLog) string {
	prev := parseSnapshot(e.OldValue)
	next := parseSnapshot(e.NewValue)

	if r, ok := renderers[renderKey{e.ActionType, e.Table}]; ok {
		return r(prev, next)
	}

	switch e.ActionType {
	case models.AuditActionUpdate:
		if changes := diffFields(prev, next); changes != "" {
			return fmt.Sprintf("Updated %s record: %s", e.Table, changes)
		}
	case models.AuditActionDelete:
		if listing := listFields(prev); listing != "" {
			return fmt.Sprintf("Deleted %s record (%s)", e.Table, listing)
		}
	}
	return fmt.Sprintf("%s %s record", verb(e.ActionType), e.Table)
}

func verb(action string) string {
	if v, ok := actionVerbs[action]; ok {
		return v
	}
	return action
}

// field returns the rendered value of one snapshot field, or "?" when the
// snapshot is unusable or the key missing.
func field(s snapshot, key string) string {
	if !s.ok {
		return "?"
	}
	v, ok := s.fields[key]
	if !ok {
		return "?"
	}
	return renderValue(v)
}

// diffFields renders "key: old → new" for every key present in both
// snapshots whose value changed, sensitive keys excluded, sorted for
// determinism.
func diffFields(prev, next snapshot) string {
	if !prev.ok || !next.ok {
		return ""
	}
	var keys []string
	for k := range next.fields {
		if sensitiveFields[k] {
			continue
		}
		if ov, present := prev.fields[k]; present && renderValue(ov) != renderValue(next.fields[k]) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", k, renderValue(prev.fields[k]), renderValue(next.fields[k])))
	}
	return strings.Join(parts, ", ")
}

// listFields renders "key: value" pairs from a snapshot, excluding sensitive
// keys and long string payloads.
func listFields(s snapshot) string {
	if !s.ok {
		return ""
	}
	var keys []string
	for k, v := range s.fields {
		if sensitiveFields[k] {
			continue
		}
		if str, isStr := v.(string); isStr && len(str) >= longValueLimit {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, renderValue(s.fields[k])))
	}
	return strings.Join(parts, ", ")
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
