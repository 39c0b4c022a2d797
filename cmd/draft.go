package cmd

import (
	"fmt"

	"github.com/haierkeys/omni-blogger/internal/editor"

	"github.com/spf13/cobra"
)

// draftSaveFlags draft save 参数
type draftSaveFlags struct {
	id    string
	title string
	tags  string
	body  string
	file  string
}

func init() {
	draftCmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage local drafts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			drafts, err := a.DraftService.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no drafts")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tSTATE\tUPDATED")
			for _, d := range drafts {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.ID, d.Title, len(d.Tags), d.SyncState(), formatTime(d.UpdatedAt))
			}
			return tw.Flush()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a draft as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := a.DraftService.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printDocument(cmd.OutOrStdout(), doc)
		},
	}

	saveEnv := new(draftSaveFlags)
	saveCmd := &cobra.Command{
		Use:   "save [--id id] [--title title] [--tags a,b] [--body html | --file path]",
		Short: "Create or update a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			sess := a.NewEditorSession()
			defer sess.Close()

			if saveEnv.id != "" {
				doc, err := a.DraftService.Get(cmd.Context(), saveEnv.id)
				if err != nil {
					return err
				}
				sess.LoadDraft(doc)
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				sess.SetTitle(saveEnv.title)
			}
			if flags.Changed("tags") {
				sess.SetTags(saveEnv.tags)
			}
			switch {
			case saveEnv.file != "":
				body, err := readBody(cmd, saveEnv.file)
				if err != nil {
					return err
				}
				sess.SetBody(body)
			case flags.Changed("body"):
				sess.SetBody(saveEnv.body)
			}

			doc, err := sess.Flush(cmd.Context())
			if err != nil {
				return err
			}
			if doc == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to save: title and body are empty")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "draft saved: %s\n", doc.ID)
			return nil
		},
	}
	sf := saveCmd.Flags()
	sf.StringVar(&saveEnv.id, "id", "", "existing draft id")
	sf.StringVarP(&saveEnv.title, "title", "t", "", "post title")
	sf.StringVar(&saveEnv.tags, "tags", "", "comma separated tags")
	sf.StringVar(&saveEnv.body, "body", "", "body HTML")
	sf.StringVarP(&saveEnv.file, "file", "f", "", "read body from file (.md is converted, - for stdin)")

	formatCmd := &cobra.Command{
		Use:   "format <id> <command> <text> [url]",
		Short: "Append formatted text to a draft",
		Long:  "Append formatted text to a draft. Commands: bold italic h2 h3 ul ol quote link code",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := editor.ParseCommand(args[1])
			if err != nil {
				return err
			}
			var arg string
			if len(args) == 4 {
				arg = args[3]
			}

			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := a.DraftService.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sess := a.NewEditorSession()
			defer sess.Close()
			sess.LoadDraft(doc)
			if err := sess.Format(c, args[2], arg); err != nil {
				return err
			}
			if _, err := sess.Flush(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "draft %s updated\n", doc.ID)
			return nil
		},
	}

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, yes, fmt.Sprintf("Delete draft %s?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.DraftService.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "draft %s deleted\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	draftCmd.AddCommand(listCmd, showCmd, saveCmd, formatCmd, deleteCmd)
	rootCmd.AddCommand(draftCmd)
}
