package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"freightdesk/internal/model"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// screen is the list layout of one collection.
type screen struct {
	searchField string
	dateField   string
	columns     []string
}

var screens = map[string]screen{
	model.CollectionLoads:      {searchField: "loadNumber", dateField: "pickupDate", columns: []string{"_id", "loadNumber", "status", "pickupDate", "deliveryDate", "rate"}},
	model.CollectionCarriers:   {searchField: "companyName", dateField: "createdAt", columns: []string{"_id", "companyName", "mcNumber", "usdotNumber", "email", "isActive"}},
	model.CollectionCustomers:  {searchField: "companyName", dateField: "createdAt", columns: []string{"_id", "companyName", "contactName", "email", "paymentTerms", "isActive"}},
	model.CollectionShippers:   {searchField: "name", dateField: "createdAt", columns: []string{"_id", "name", "contactName", "phone", "isActive"}},
	model.CollectionConsignees: {searchField: "name", dateField: "createdAt", columns: []string{"_id", "name", "contactName", "phone", "isActive"}},
	model.CollectionTrucks:     {searchField: "truckNumber", dateField: "availableFrom", columns: []string{"_id", "truckNumber", "carrierId", "equipment", "location", "availableFrom"}},
	model.CollectionQuotes:     {searchField: "origin", dateField: "validUntil", columns: []string{"_id", "customerId", "origin", "destination", "rate", "status"}},
	model.CollectionRoles:      {searchField: "name", dateField: "createdAt", columns: []string{"_id", "name", "permissions", "isActive"}},
	model.CollectionUsers:      {searchField: "email", dateField: "createdAt", columns: []string{"_id", "firstName", "lastName", "email", "role", "isActive"}},
	model.CollectionBrokers:    {searchField: "name", dateField: "createdAt", columns: []string{"_id", "name", "email", "commission", "isActive"}},
	model.AuditLog:             {searchField: "actorEmail", dateField: "occurredAt", columns: []string{"occurredAt", "action", "collection", "recordId", "actorEmail", "status", "error"}},
}

func screenOf(collection string) screen {
	if s, ok := screens[collection]; ok {
		return s
	}
	return screen{dateField: "createdAt", columns: []string{"_id"}}
}

func validateOutput(format string) error {
	switch format {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q, use table or json", format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, columns []string, rows []model.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = strings.ToUpper(strings.TrimPrefix(col, "_"))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = cell(row, col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// writeDetail prints one record as aligned key/value lines.
func writeDetail(w io.Writer, rec model.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, key := range rec.Keys() {
		fmt.Fprintf(tw, "%s\t%s\n", key, cell(rec, key))
	}
	return tw.Flush()
}

func writePageFooter(w io.Writer, p model.Pagination) {
	pages := max(p.TotalPages, 1)
	fmt.Fprintf(w, "Page %d of %d (%d items)\n", p.Page, pages, p.TotalItems)
}

// cell renders nested values as compact JSON.
func cell(rec model.Record, key string) string {
	switch v := rec[key].(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return strings.ReplaceAll(rec.String(key), "\t", " ")
	}
}
