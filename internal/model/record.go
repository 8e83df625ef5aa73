package model

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Record is an untyped backend row. The sandbox stores records in this form
// and the console renders them column by column.
type Record map[string]any

func (r Record) ID() string {
	return r.String("_id")
}

func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}

	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

func (r Record) Time(key string) (time.Time, bool) {
	raw := r.String(key)
	if raw == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone deep-copies the JSON-shaped values of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case Record:
		return typed.Clone()
	case map[string]any:
		return map[string]any(Record(typed).Clone())
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

const (
	CollectionLoads      = "loads"
	CollectionCarriers   = "carriers"
	CollectionCustomers  = "customers"
	CollectionShippers   = "shippers"
	CollectionConsignees = "consignees"
	CollectionTrucks     = "trucks"
	CollectionQuotes     = "quotes"
	CollectionRoles      = "roles"
	CollectionUsers      = "users"
	CollectionBrokers    = "brokers"
)

var Collections = []string{
	CollectionLoads,
	CollectionCarriers,
	CollectionCustomers,
	CollectionShippers,
	CollectionConsignees,
	CollectionTrucks,
	CollectionQuotes,
	CollectionRoles,
	CollectionUsers,
	CollectionBrokers,
}

func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

var singular = map[string]string{
	CollectionLoads:      "Load",
	CollectionCarriers:   "Carrier",
	CollectionCustomers:  "Customer",
	CollectionShippers:   "Shipper",
	CollectionConsignees: "Consignee",
	CollectionTrucks:     "Truck",
	CollectionQuotes:     "Quote",
	CollectionRoles:      "Role",
	CollectionUsers:      "User",
	CollectionBrokers:    "Broker",
}

// Singular names one record of a collection for user-facing messages.
func Singular(collection string) string {
	if name, ok := singular[collection]; ok {
		return name
	}
	return "Record"
}
