// ABOUTME: Generic record CLI commands for every registered resource
// ABOUTME: list, show, create, update and delete go through the coordinator
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/db"
	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
)

// ListPageSize is the default page size of the list command.
const ListPageSize = 20

// listColumns are the fields shown after the id in list output.
var listColumns = map[string][]string{
	models.ResourceCompanies:  {"name", "industry", "companySize", "totalRevenue"},
	models.ResourceContacts:   {"name", "email", "status", "jobTitle"},
	models.ResourceDeals:      {"title", "value", "stageId", "companyId"},
	models.ResourceTasks:      {"title", "dueDate", "stageId", "completed"},
	models.ResourceUsers:      {"name", "email", "jobTitle"},
	models.ResourceEvents:     {"title", "startDate", "endDate"},
	models.ResourceDealStages: {"title"},
	models.ResourceTaskStages: {"title"},
}

var moneyFields = map[string]bool{"value": true, "totalRevenue": true}

// splitArgs takes n leading positional arguments and returns the rest for flag parsing.
func splitArgs(args []string, n int, usage string) ([]string, []string, error) {
	if len(args) < n {
		return nil, nil, fmt.Errorf("usage: %s", usage)
	}
	for _, a := range args[:n] {
		if strings.HasPrefix(a, "-") {
			return nil, nil, fmt.Errorf("usage: %s", usage)
		}
	}
	return args[:n], args[n:], nil
}

// ListCommand lists one page of a resource.
func ListCommand(ctx context.Context, app *App, args []string) error {
	pos, rest, err := splitArgs(args, 1, "list <resource> [flags]")
	if err != nil {
		return err
	}
	resource := pos[0]

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var filterSpecs, sortSpecs repeated
	fs.Var(&filterSpecs, "filter", "Filter field:operator[:value] (repeatable)")
	fs.Var(&sortSpecs, "sort", "Sort field[:asc|desc] (repeatable)")
	page := fs.Int("page", 1, "Page number")
	pageSize := fs.Int("page-size", ListPageSize, "Records per page")
	asJSON := fs.Bool("json", false, "Print records as JSON")
	offline := fs.Bool("offline", false, "Read saved snapshots instead of the API")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	var records []objects.Record
	total := 0
	if *offline {
		records = cachedRecords(app.Coordinator.Cache(), resource)
		total = len(records)
	} else {
		filters, err := parseFilters(filterSpecs)
		if err != nil {
			return err
		}
		sorters, err := parseSorters(sortSpecs)
		if err != nil {
			return err
		}
		params := adapter.ListParams{
			Filters:    filters,
			Sorters:    sorters,
			Pagination: adapter.Pagination{Current: *page, PageSize: *pageSize},
		}
		result, err := app.Coordinator.LoadList(ctx, "cli:"+resource, resource, params)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", resource, err)
		}
		records, total = result.Records, result.Total
		if err := db.SaveSnapshots(app.DB, resource, records); err != nil {
			app.Log.Warn().Err(err).Str("resource", resource).Msg("failed to save snapshots")
		}
	}

	if *asJSON {
		return writeJSON(app.Out, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(app.Out, "No %s found\n", resource)
		return nil
	}

	columns := listColumns[resource]
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	header := append([]string{"ID"}, columns...)
	_, _ = fmt.Fprintln(w, strings.ToUpper(strings.Join(header, "\t")))
	for _, rec := range records {
		row := []string{rec.ID()}
		for _, col := range columns {
			row = append(row, formatField(rec, col))
		}
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()

	fmt.Fprintf(app.Out, "\nShowing %d of %d %s\n", len(records), total, resource)
	return nil
}

// cachedRecords returns the visible cached records of a resource ordered by id.
func cachedRecords(c *cache.Store, resource string) []objects.Record {
	keys := c.Keys(resource)
	records := make([]objects.Record, 0, len(keys))
	for _, key := range keys {
		if rec, ok := c.Get(key); ok {
			records = append(records, rec)
		}
	}
	return records
}

// ShowCommand prints one record.
func ShowCommand(ctx context.Context, app *App, args []string) error {
	pos, rest, err := splitArgs(args, 2, "show <resource> <id> [--json]")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the record as JSON")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	rec, err := app.Coordinator.Load(ctx, pos[0], pos[1])
	if err != nil {
		return fmt.Errorf("failed to load %s %s: %w", pos[0], pos[1], err)
	}
	if *asJSON {
		return writeJSON(app.Out, rec)
	}
	printRecord(app.Out, rec)
	return nil
}

// CreateCommand creates a record from --set assignments.
func CreateCommand(ctx context.Context, app *App, args []string) error {
	pos, rest, err := splitArgs(args, 1, "create <resource> --set field=value ...")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	var sets repeated
	fs.Var(&sets, "set", "Field assignment field=value (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	values, err := parseAssignments(sets)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("at least one --set is required")
	}

	rec, err := app.Coordinator.Create(ctx, pos[0], values)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", pos[0], err)
	}
	fmt.Fprintf(app.Out, "✓ Created %s %s\n", pos[0], rec.ID())
	printRecord(app.Out, rec)
	return nil
}

// UpdateCommand applies --set assignments to a record.
func UpdateCommand(ctx context.Context, app *App, args []string) error {
	pos, rest, err := splitArgs(args, 2, "update <resource> <id> --set field=value ...")
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	var sets repeated
	fs.Var(&sets, "set", "Field assignment field=value (repeatable)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	patch, err := parseAssignments(sets)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("at least one --set is required")
	}

	rec, err := app.Coordinator.Update(ctx, pos[0], pos[1], patch)
	if err != nil {
		return fmt.Errorf("failed to update %s %s: %w", pos[0], pos[1], err)
	}
	fmt.Fprintf(app.Out, "✓ Updated %s %s\n", pos[0], pos[1])
	printRecord(app.Out, rec)
	return nil
}

// DeleteCommand deletes a record.
func DeleteCommand(ctx context.Context, app *App, args []string) error {
	pos, _, err := splitArgs(args, 2, "delete <resource> <id>")
	if err != nil {
		return err
	}
	if err := app.Coordinator.Delete(ctx, pos[0], pos[1]); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", pos[0], pos[1], err)
	}
	fmt.Fprintf(app.Out, "✓ Deleted %s %s\n", pos[0], pos[1])
	return nil
}

func printRecord(out io.Writer, rec objects.Record) {
	fields := make([]string, 0, len(rec))
	for k := range rec {
		if k != objects.FieldID {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "  id:\t%s\n", rec.ID())
	for _, f := range fields {
		_, _ = fmt.Fprintf(w, "  %s:\t%s\n", f, formatField(rec, f))
	}
	_ = w.Flush()
}

func formatField(rec objects.Record, field string) string {
	if moneyFields[field] && rec[field] != nil {
		return display.USD(rec.Decimal(field))
	}
	return formatValue(rec[field])
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		if t == "" {
			return "-"
		}
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
