package entity

import (
	_ "embed"
	"fmt"
	"strconv"
	"time"
)

// Row is a single inbox record as read from the store, keyed by column name.
type Row map[string]any

// Spec is the static configuration driving the generic list/export/mark-read
// handlers for one inbox entity. Handlers and services are parameterized by a
// Spec instead of being written per entity.
type Spec struct {
	// Name is the URL path segment and the schema registry key.
	Name string
	// Table is the backing Postgres table.
	Table string
	// Columns are the select expressions; uuid columns are cast to text so
	// rows serialize uniformly.
	Columns []string
	// SearchColumns are matched with OR-combined ILIKE when a search term is
	// present.
	SearchColumns []string
	// SortFields maps API-facing sort keys to columns.
	SortFields     map[string]string
	DefaultSortKey string
	DefaultDesc    bool
	// CSVHeader and CSVRow drive the export; CSVRow must yield one cell per
	// header, in header order.
	CSVHeader []string
	CSVRow    func(Row) []string
	// FilenamePrefix names the export attachment: {prefix}-{YYYY-MM-DD}.csv.
	FilenamePrefix string
	// Endpoint is the rate-limit endpoint name; the operation suffix
	// (:list, :export, :read) is appended per handler.
	Endpoint string
	// RowSchema is the JSON Schema every outgoing row must satisfy.
	RowSchema []byte
}

//go:embed schemas/offers.json
var offersSchema []byte

//go:embed schemas/messages.json
var messagesSchema []byte

//go:embed schemas/appointments.json
var appointmentsSchema []byte

//go:embed schemas/applications.json
var applicationsSchema []byte

// Offers are service/price offer requests submitted through a tenant's site.
func Offers() Spec {
	return Spec{
		Name:  "offers",
		Table: "offer_requests",
		Columns: []string{
			"id::text AS id", "tenant_id::text AS tenant_id", "created_at", "is_read",
			"customer_name", "customer_email", "phone", "service", "message", "budget",
		},
		SearchColumns:  []string{"customer_name", "customer_email", "service", "message"},
		SortFields:     map[string]string{"created_at": "created_at", "customer_name": "customer_name", "service": "service"},
		DefaultSortKey: "created_at",
		DefaultDesc:    true,
		CSVHeader:      []string{"Date", "Name", "Email", "Phone", "Service", "Message", "Budget", "Read"},
		CSVRow: func(r Row) []string {
			return []string{
				Cell(r["created_at"]), Cell(r["customer_name"]), Cell(r["customer_email"]),
				Cell(r["phone"]), Cell(r["service"]), Cell(r["message"]), Cell(r["budget"]),
				Cell(r["is_read"]),
			}
		},
		FilenamePrefix: "offer-requests",
		Endpoint:       "inbox:offers",
		RowSchema:      offersSchema,
	}
}

// Messages are contact form submissions.
func Messages() Spec {
	return Spec{
		Name:  "messages",
		Table: "contact_messages",
		Columns: []string{
			"id::text AS id", "tenant_id::text AS tenant_id", "created_at", "is_read",
			"sender_name", "sender_email", "phone", "subject", "body",
		},
		SearchColumns:  []string{"sender_name", "sender_email", "subject", "body"},
		SortFields:     map[string]string{"created_at": "created_at", "sender_name": "sender_name", "subject": "subject"},
		DefaultSortKey: "created_at",
		DefaultDesc:    true,
		CSVHeader:      []string{"Date", "Name", "Email", "Phone", "Subject", "Message", "Read"},
		CSVRow: func(r Row) []string {
			return []string{
				Cell(r["created_at"]), Cell(r["sender_name"]), Cell(r["sender_email"]),
				Cell(r["phone"]), Cell(r["subject"]), Cell(r["body"]), Cell(r["is_read"]),
			}
		},
		FilenamePrefix: "contact-messages",
		Endpoint:       "inbox:messages",
		RowSchema:      messagesSchema,
	}
}

// Appointments are booking requests.
func Appointments() Spec {
	return Spec{
		Name:  "appointments",
		Table: "appointments",
		Columns: []string{
			"id::text AS id", "tenant_id::text AS tenant_id", "created_at", "is_read",
			"customer_name", "customer_email", "phone", "scheduled_at", "service", "notes",
		},
		SearchColumns:  []string{"customer_name", "customer_email", "service", "notes"},
		SortFields:     map[string]string{"created_at": "created_at", "scheduled_at": "scheduled_at", "customer_name": "customer_name"},
		DefaultSortKey: "scheduled_at",
		DefaultDesc:    false,
		CSVHeader:      []string{"Date", "Name", "Email", "Phone", "Scheduled", "Service", "Notes", "Read"},
		CSVRow: func(r Row) []string {
			return []string{
				Cell(r["created_at"]), Cell(r["customer_name"]), Cell(r["customer_email"]),
				Cell(r["phone"]), Cell(r["scheduled_at"]), Cell(r["service"]), Cell(r["notes"]),
				Cell(r["is_read"]),
			}
		},
		FilenamePrefix: "appointments",
		Endpoint:       "inbox:appointments",
		RowSchema:      appointmentsSchema,
	}
}

// Applications are job applications.
func Applications() Spec {
	return Spec{
		Name:  "applications",
		Table: "job_applications",
		Columns: []string{
			"id::text AS id", "tenant_id::text AS tenant_id", "created_at", "is_read",
			"candidate_name", "candidate_email", "phone", "position", "cover_letter", "cv_url",
		},
		SearchColumns:  []string{"candidate_name", "candidate_email", "position"},
		SortFields:     map[string]string{"created_at": "created_at", "candidate_name": "candidate_name", "position": "position"},
		DefaultSortKey: "created_at",
		DefaultDesc:    true,
		CSVHeader:      []string{"Date", "Name", "Email", "Phone", "Position", "Cover Letter", "CV", "Read"},
		CSVRow: func(r Row) []string {
			return []string{
				Cell(r["created_at"]), Cell(r["candidate_name"]), Cell(r["candidate_email"]),
				Cell(r["phone"]), Cell(r["position"]), Cell(r["cover_letter"]), Cell(r["cv_url"]),
				Cell(r["is_read"]),
			}
		},
		FilenamePrefix: "job-applications",
		Endpoint:       "inbox:applications",
		RowSchema:      applicationsSchema,
	}
}

// Catalog lists every inbox entity in route-registration order.
func Catalog() []Spec {
	return []Spec{Offers(), Messages(), Appointments(), Applications()}
}

// Lookup resolves an entity by its URL name.
func Lookup(name string) (Spec, bool) {
	for _, sp := range Catalog() {
		if sp.Name == name {
			return sp, true
		}
	}
	return Spec{}, false
}

// Cell renders one row value as a CSV cell. Absent optional fields become the
// empty string, never a "null" literal.
func Cell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
