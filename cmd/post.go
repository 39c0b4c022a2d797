package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/haierkeys/omni-blogger/internal/service"

	"github.com/spf13/cobra"
)

// postPublishFlags post publish 参数
type postPublishFlags struct {
	draft string
	title string
	tags  string
	file  string
}

func init() {
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Publish and manage posts through the content API",
	}

	pubEnv := new(postPublishFlags)
	publishCmd := &cobra.Command{
		Use:   "publish [--draft id | --title title --file path [--tags a,b]]",
		Short: "Publish a draft or a file as a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			sess := a.NewEditorSession()
			defer sess.Close()

			if pubEnv.draft != "" {
				doc, err := a.DraftService.Get(cmd.Context(), pubEnv.draft)
				if err != nil {
					return err
				}
				sess.LoadDraft(doc)
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				sess.SetTitle(pubEnv.title)
			}
			if flags.Changed("tags") {
				sess.SetTags(pubEnv.tags)
			}
			if pubEnv.file != "" {
				body, err := readBody(cmd, pubEnv.file)
				if err != nil {
					return err
				}
				sess.SetBody(body)
			}

			ctx, cancel := commandContext(cmd, a.Config().CommandTimeout())
			defer cancel()

			res, err := a.PublishService.Publish(ctx, sess)
			if err != nil {
				printPublishError(cmd.ErrOrStderr(), err)
				return err
			}

			out := cmd.OutOrStdout()
			verb := "published"
			if res.Updated {
				verb = "updated"
			}
			fmt.Fprintf(out, "post %s: %s\n", verb, res.Slug)
			fmt.Fprintf(out, "  file:    %s\n", res.Filename)
			fmt.Fprintf(out, "  sha:     %s\n", shortVersion(res.Version))
			if res.URL != "" {
				fmt.Fprintf(out, "  url:     %s\n", res.URL)
			}
			if res.ImagesUploaded > 0 {
				fmt.Fprintf(out, "  images:  %d\n", res.ImagesUploaded)
			}
			if res.Attempts > 1 {
				fmt.Fprintf(out, "  attempts: %d\n", res.Attempts)
			}
			return nil
		},
	}
	pf := publishCmd.Flags()
	pf.StringVar(&pubEnv.draft, "draft", "", "draft id to publish")
	pf.StringVarP(&pubEnv.title, "title", "t", "", "post title")
	pf.StringVar(&pubEnv.tags, "tags", "", "comma separated tags")
	pf.StringVarP(&pubEnv.file, "file", "f", "", "read body from file (.md is converted, - for stdin)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cmd, a.Config().ClientTimeout())
			defer cancel()
			posts, err := a.PublishService.ListPosts(ctx)
			if err != nil {
				return err
			}
			if len(posts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no posts")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "SLUG\tTITLE\tDATE\tTAGS")
			for _, p := range posts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Slug, p.Title, formatTime(p.Date), len(p.Tags))
			}
			return tw.Flush()
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <slug>",
		Short: "Load a published post into a local draft for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cmd, a.Config().ClientTimeout())
			defer cancel()

			sess := a.NewEditorSession()
			defer sess.Close()
			if err := a.PublishService.LoadForEditing(ctx, args[0], sess); err != nil {
				return err
			}
			doc, err := sess.Flush(ctx)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("post %s has no content", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "post %s loaded into draft %s\n", args[0], doc.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "publish changes with: post publish --draft %s\n", doc.ID)
			return nil
		},
	}

	var yes bool
	deleteCmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a published post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm(cmd, yes, fmt.Sprintf("Delete post %s from the blog?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			a, cleanup, err := newClientApp()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := commandContext(cmd, a.Config().CommandTimeout())
			defer cancel()
			if err := a.PublishService.DeletePost(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "post %s deleted\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	postCmd.AddCommand(publishCmd, listCmd, editCmd, deleteCmd)
	rootCmd.AddCommand(postCmd)
}

// printPublishError 输出发布失败的导出路径与冲突差异
func printPublishError(w io.Writer, err error) {
	var pe *service.PublishError
	if !errors.As(err, &pe) {
		return
	}
	if pe.FallbackPath != "" {
		fmt.Fprintf(w, "post exported to %s, the draft was kept\n", pe.FallbackPath)
	}
	c := pe.Conflict
	if c == nil {
		return
	}
	if c.RemoteDeleted {
		fmt.Fprintln(w, "the post was deleted on the server; publish again as a new post")
		return
	}
	fmt.Fprintf(w, "the post changed on the server (sha %s): +%d -%d\n", shortVersion(c.RemoteVersion), c.Diff.Insertions, c.Diff.Deletions)
	if c.Diff.Unified != "" {
		fmt.Fprintln(w, c.Diff.Unified)
	}
	if c.Clean {
		fmt.Fprintln(w, "local changes merge cleanly with the server copy")
	} else {
		fmt.Fprintln(w, "local changes overlap with the server copy; resolve manually")
	}
}
