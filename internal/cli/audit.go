package cli

import (
	"github.com/spf13/cobra"

	"freightdesk/internal/access"
	"freightdesk/internal/listing"
	"freightdesk/internal/listquery"
	"freightdesk/internal/model"
)

func (c *Console) newAuditCommand() *cobra.Command {
	var (
		filters    filterFlags
		action     string
		collection string
		actor      string
		page       int
		limit      int
		output     string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the write trail of the backend (admins only)",
		Example: `  freightdesk audit --status failure
  freightdesk audit --action delete --collection carriers --from 2026-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			if err := c.requireSession(); err != nil {
				return err
			}

			filter, err := filters.filter(cmd)
			if err != nil {
				return err
			}
			filter.Limit = limit
			filter.Extra = append(filter.Extra,
				listquery.Param{Key: "action", Value: action},
				listquery.Param{Key: "collection", Value: collection},
				listquery.Param{Key: "actorId", Value: actor},
			)

			hook := access.New(map[string]access.Operations[model.Record]{
				model.AuditLog: {GetAll: c.api.Audit.List},
			}, c.notifier)

			sc := screenOf(model.AuditLog)
			ctrl := listing.New(hook, listing.Config{
				Service:     model.AuditLog,
				SearchField: sc.searchField,
				DateField:   sc.dateField,
				Limit:       c.cfg.PageSize,
				Prefs:       c.session.Preferences(model.AuditLog),
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

			if err := writeTable(c.streams.Out, sc.columns, ctrl.Rows()); err != nil {
				return err
			}
			writePageFooter(c.streams.Out, ctrl.Pagination())
			return nil
		},
	}

	filters.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&action, "action", "", "create, update, delete, toggle-active, refresh-age or upload-document")
	fs.StringVar(&collection, "collection", "", "only writes to this collection")
	fs.StringVar(&actor, "actor", "", "only writes by this user id")
	fs.IntVar(&page, "page", 1, "page to show")
	fs.IntVarP(&limit, "limit", "l", 0, "page size")
	fs.StringVarP(&output, "output", "o", outputTable, "output format: table or json")

	return cmd
}
