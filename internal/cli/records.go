package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"freightdesk/internal/access"
	"freightdesk/internal/listing"
	"freightdesk/internal/model"
	"freightdesk/internal/notify"
	"freightdesk/internal/resource"
)

// recordHook registers the untyped operations of one collection.
func (c *Console) recordHook(collection string) (*access.Hook[model.Record], *resource.Resource[model.Record], error) {
	res, err := c.api.Records(collection)
	if err != nil {
		return nil, nil, fmt.Errorf("%q: %w, expected one of %s", collection, err, strings.Join(model.Collections, ", "))
	}

	hook := access.New(map[string]access.Operations[model.Record]{
		collection: access.FromResource(res),
	}, c.notifier)
	return hook, res, nil
}

func collectionArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return err
		}
		if !model.IsCollection(args[0]) {
			return fmt.Errorf("unknown collection %q, expected one of %s", args[0], strings.Join(model.Collections, ", "))
		}
		return nil
	}
}

func (c *Console) newListCommand() *cobra.Command {
	var (
		filters filterFlags
		page    int
		limit   int
		columns []string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List one page of a collection",
		Example: `  freightdesk list loads --status in_transit --sort age:desc
  freightdesk list carriers --search acme --limit 25 --page 2
  freightdesk list loads --from 2026-03-01 --to 2026-03-31 -f carrierId=c-1`,
		Args: collectionArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if err := c.requireSession(); err != nil {
				return err
			}

			collection := args[0]
			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			filter, err := filters.filter(cmd)
			if err != nil {
				return err
			}
			filter.Limit = limit

			sc := screenOf(collection)
			ctrl := listing.New(hook, listing.Config{
				Service:     collection,
				SearchField: sc.searchField,
				DateField:   sc.dateField,
				Limit:       c.cfg.PageSize,
				Prefs:       c.session.Preferences(collection),
			})

			ctx := cmd.Context()
			env := ctrl.Apply(ctx, filter)
			if env.Success && page > 1 {
				env = ctrl.SetPage(ctx, page)
			}
			if !env.Success {
				return errReported
			}

			if output == outputJSON {
				meta := ctrl.Pagination()
				return writeJSON(c.streams.Out, model.Envelope[[]model.Record]{
					Success: true,
					Data:    ctrl.Rows(),
					Meta:    &meta,
				})
			}

			if len(columns) == 0 {
				columns = sc.columns
			}
			if err := writeTable(c.streams.Out, columns, ctrl.Rows()); err != nil {
				return err
			}
			writePageFooter(c.streams.Out, ctrl.Pagination())
			return nil
		},
	}

	filters.register(cmd)
	fs := cmd.Flags()
	fs.IntVar(&page, "page", 1, "page to show")
	fs.IntVarP(&limit, "limit", "l", 0, "page size; remembered per collection")
	fs.StringSliceVar(&columns, "columns", nil, "columns to show (defaults per collection)")
	fs.StringVarP(&output, "output", "o", outputTable, "output format: table or json")

	return cmd
}

func (c *Console) newGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Show one record",
		Args:  collectionArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if err := c.requireSession(); err != nil {
				return err
			}

			collection, id := args[0], args[1]
			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			env := hook.GetDataByID(cmd.Context(), collection, id, "")
			if !env.Success {
				return errReported
			}

			if output == outputJSON {
				return writeJSON(c.streams.Out, env.Data)
			}
			return writeDetail(c.streams.Out, env.Data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

// payloadFlags collect a record body from a JSON file and key=value pairs.
type payloadFlags struct {
	file        string
	set         []string
	interactive bool
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&p.file, "file", "", "JSON object with the record fields, - for stdin")
	fs.StringArrayVar(&p.set, "set", nil, "field=value, repeatable; values are read as JSON when they parse")
	fs.BoolVarP(&p.interactive, "interactive", "i", false, "fill the step form (users and carriers)")
}

func (p *payloadFlags) empty() bool {
	return p.file == "" && len(p.set) == 0
}

func (c *Console) payload(p payloadFlags) (model.Record, error) {
	body := model.Record{}

	if p.file != "" {
		var (
			data []byte
			err  error
		)
		if p.file == "-" {
			data, err = io.ReadAll(c.reader)
		} else {
			data, err = os.ReadFile(p.file)
		}
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}

	for _, pair := range p.set {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q must look like field=value", pair)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, errors.New("payload is empty")
	}
	return body, nil
}

func (c *Console) newCreateCommand() *cobra.Command {
	var (
		p      payloadFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "create <collection>",
		Short: "Create a record from JSON, field pairs or the step form",
		Example: `  freightdesk create carriers -i
  freightdesk create loads --file load.json
  freightdesk create brokers --set name="Dana Reyes" --set commission=0.08`,
		Args: collectionArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			collection := args[0]
			if p.interactive || (p.empty() && hasForm(collection)) {
				return c.runFormWizard(cmd.Context(), collection, "")
			}

			body, err := c.payload(p)
			if err != nil {
				return err
			}

			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			env := hook.CreateData(cmd.Context(), collection, body)
			if !env.Success {
				return errReported
			}
			return c.printRecord(env.Data, output)
		},
	}

	p.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "print the saved record: table or json")
	return cmd
}

func (c *Console) newUpdateCommand() *cobra.Command {
	var (
		p      payloadFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Update a record from JSON, field pairs or the step form",
		Args:  collectionArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			collection, id := args[0], args[1]
			if p.interactive || (p.empty() && hasForm(collection)) {
				return c.runFormWizard(cmd.Context(), collection, id)
			}

			body, err := c.payload(p)
			if err != nil {
				return err
			}

			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			env := hook.UpdateData(cmd.Context(), collection, id, body)
			if !env.Success {
				return errReported
			}
			return c.printRecord(env.Data, output)
		},
	}

	p.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "print the saved record: table or json")
	return cmd
}

func (c *Console) printRecord(rec model.Record, output string) error {
	switch output {
	case "":
		return nil
	case outputJSON:
		return writeJSON(c.streams.Out, rec)
	default:
		if err := validateOutput(output); err != nil {
			return err
		}
		return writeDetail(c.streams.Out, rec)
	}
}

func (c *Console) newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record",
		Args:  collectionArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			collection, id := args[0], args[1]
			if !yes {
				ok, err := c.confirm(fmt.Sprintf("Delete %s %s?", strings.ToLower(model.Singular(collection)), id))
				if err != nil {
					return err
				}
				if !ok {
					notify.Info(c.notifier, "Nothing deleted")
					return nil
				}
			}

			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			if env := hook.DeleteDataByID(cmd.Context(), collection, id); !env.Success {
				return errReported
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (c *Console) newToggleActiveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-active <collection> <id>",
		Short: "Activate an inactive record or deactivate an active one",
		Args:  collectionArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			collection, id := args[0], args[1]
			hook, _, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			if env := hook.Perform(cmd.Context(), collection, access.ActionToggleActive, id); !env.Success {
				return errReported
			}
			return nil
		},
	}
}

func (c *Console) newExportCommand() *cobra.Command {
	var (
		filters filterFlags
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "export <collection>",
		Short: "Download the filtered collection as a CSV report",
		Args:  collectionArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}

			collection := args[0]
			_, res, err := c.recordHook(collection)
			if err != nil {
				return err
			}

			query, err := filters.query(cmd, screenOf(collection), c.session.Preferences(collection).Tab())
			if err != nil {
				return err
			}

			env := res.Export(cmd.Context(), query.Encode())
			if !env.Success {
				notify.Error(c.notifier, env.Message)
				return errReported
			}

			path := outPath
			if path == "" {
				path = filepath.Base(env.Data.Filename)
			}
			if path == "" || path == "." || path == string(filepath.Separator) {
				path = collection + ".csv"
			}
			if err := writeBlob(c.streams.Out, path, env.Data); err != nil {
				return err
			}

			if path != "-" {
				notify.Success(c.notifier, fmt.Sprintf("Exported %s to %s", collection, path))
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "file to write, - for stdout (defaults to the name sent by the backend)")
	return cmd
}

func writeBlob(stdout io.Writer, path string, blob model.Blob) error {
	if path == "-" {
		_, err := stdout.Write(blob.Content)
		return err
	}

	if err := os.WriteFile(path, blob.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
