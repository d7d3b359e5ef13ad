package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultListLimit = 100

func (a *App) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <local-file> [name]",
		Short: "Upload a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := filepath.Base(args[0])
			if len(args) == 2 {
				name = args[1]
			}

			content, err := afero.ReadFile(a.fs, args[0])
			if err != nil {
				return err
			}
			if int64(len(content)) > a.config.MaxUploadBytes {
				return fmt.Errorf("%s is %s, the limit is %s", args[0], humanSize(int64(len(content))), humanSize(a.config.MaxUploadBytes))
			}

			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := c.Upload(ctx, name, content)
			if err != nil {
				return err
			}

			printFile(a.out, f)
			return nil
		},
	}
}

func (a *App) newDownloadCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "download <name> [local-file]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := args[0]
			if len(args) == 2 {
				dest = args[1]
			}

			if !force {
				exists, err := afero.Exists(a.fs, dest)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("%s already exists, use --force to overwrite", dest)
				}
			}

			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := c.Download(ctx, args[0])
			if err != nil {
				return err
			}
			if err := afero.WriteFile(a.fs, dest, content, 0o644); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Saved %s (%s)\n", dest, humanSize(int64(len(content))))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing local file")
	return cmd
}

func (a *App) newRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rename <name> <new-name>",
		Aliases: []string{"mv"},
		Short:   "Rename a file",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := c.Rename(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			printFile(a.out, f)
			return nil
		},
	}
}

func (a *App) newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"delete"},
		Short:   "Delete a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := c.Delete(ctx, args[0]); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func (a *App) newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List files, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer cleanup()

			files, err := c.List(ctx, limit)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Fprintln(a.out, "No files")
				return nil
			}

			printFiles(a.out, files, a.now())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultListLimit, "how many files to show")
	return cmd
}
