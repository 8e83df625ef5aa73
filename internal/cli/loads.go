package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"freightdesk/internal/access"
	"freightdesk/internal/model"
	"freightdesk/internal/notify"
)

func (c *Console) loadHook() *access.Hook[model.Load] {
	return access.New(map[string]access.Operations[model.Load]{
		model.CollectionLoads: access.LoadOperations(c.api.Loads),
	}, c.notifier)
}

func (c *Console) newLoadsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loads",
		Short: "Load board actions: age refresh and documents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return c.requireSession()
		},
	}

	cmd.AddCommand(
		c.newRefreshAgeCommand(),
		c.newDocumentsCommand(),
		c.newUploadCommand(),
		c.newDownloadCommand(),
	)
	return cmd
}

func (c *Console) newRefreshAgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-age <load-id>",
		Short: "Restart the posted age of a load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := c.loadHook().Perform(cmd.Context(), model.CollectionLoads, access.ActionRefreshAge, args[0])
			if !env.Success {
				return errReported
			}

			fmt.Fprintf(c.streams.Out, "%s posted at %s\n", env.Data.LoadNumber, env.Data.PostedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func (c *Console) newDocumentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "documents <load-id>",
		Short: "List the documents attached to a load",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := c.loadHook().GetDataByID(cmd.Context(), model.CollectionLoads, args[0], "")
			if !env.Success {
				return errReported
			}

			if len(env.Data.Documents) == 0 {
				notify.Info(c.notifier, fmt.Sprintf("Load %s has no documents", env.Data.LoadNumber))
				return nil
			}

			w := tabwriter.NewWriter(c.streams.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tDIMENSIONS\tUPLOADED")
			for _, doc := range env.Data.Documents {
				dims := ""
				if doc.Width > 0 && doc.Height > 0 {
					dims = fmt.Sprintf("%dx%d", doc.Width, doc.Height)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					doc.ID, doc.Name, doc.ContentType, doc.Size, dims, doc.UploadedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func (c *Console) newUploadCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <load-id> <file>",
		Short: "Attach a document such as a rate confirmation or a POD to a load",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			defer f.Close()

			if name == "" {
				name = filepath.Base(args[1])
			}

			env := c.api.Loads.UploadDocument(cmd.Context(), args[0], name, f)
			if !env.Success {
				notify.Error(c.notifier, env.Message)
				return errReported
			}

			message := env.Message
			if message == "" {
				message = "Document uploaded"
			}
			notify.Success(c.notifier, fmt.Sprintf("%s: %s (%s)", message, env.Data.Name, env.Data.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "stored file name (defaults to the local name)")
	return cmd
}

func (c *Console) newDownloadCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "download <load-id> <document-id>",
		Short: "Save a load document locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env := c.api.Loads.DownloadDocument(cmd.Context(), args[0], args[1])
			if !env.Success {
				notify.Error(c.notifier, env.Message)
				return errReported
			}

			path := outPath
			if path == "" {
				path = filepath.Base(env.Data.Filename)
			}
			if path == "" || path == "." || path == string(filepath.Separator) {
				path = args[1]
			}
			if err := writeBlob(c.streams.Out, path, env.Data); err != nil {
				return err
			}

			if path != "-" {
				notify.Success(c.notifier, fmt.Sprintf("Saved %s (%d bytes)", path, len(env.Data.Content)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "O", "", "file to write, - for stdout (defaults to the stored name)")
	return cmd
}
