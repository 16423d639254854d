package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/me/nfclass/internal/generate"
	"github.com/me/nfclass/internal/patch"
	"github.com/me/nfclass/internal/registry"
	"github.com/spf13/cobra"
)

func newSubworkflowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subworkflows",
		Short: "Work with class-based subworkflows",
	}
	cmd.PersistentFlags().StringP("git-remote", "g", registry.DefaultModulesRemote, "Modules repository git remote")
	cmd.PersistentFlags().StringP("branch", "b", registry.DefaultBranch, "Branch to fetch classes and modules from")

	cmd.AddCommand(newExpandClassCmd())
	return cmd
}

func newExpandClassCmd() *cobra.Command {
	var (
		dir     string
		author  string
		force   bool
		modules []string
	)

	cmd := &cobra.Command{
		Use:   "expand-class [class]",
		Short: "Expand a class into a subworkflow dispatching among its modules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			remote, _ := cmd.Flags().GetString("git-remote")
			branch, _ := cmd.Flags().GetString("branch")

			w, err := openWorkspace(dir, remote, branch)
			if err != nil {
				return err
			}
			defer w.Close()

			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			className, err := resolveClassName(ctx, w.reg, arg, false)
			if err != nil {
				return err
			}
			authorHandle, err := resolveAuthor(author, false)
			if err != nil {
				return err
			}

			swf, err := expandClass(ctx, w, className, modules, authorHandle)
			if err != nil {
				return err
			}

			dest := subworkflowDir(w, className)
			files := reapplyRecordedPatch(dest, className, swf.Files)
			written, err := files.Write(dest, force)
			if err != nil {
				return err
			}
			logger.Info("expanded class", "class", className,
				"modules", strings.Join(swf.Modules, ","), "dir", dest)
			for _, f := range written {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Modules repository checkout to write into")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author handle for meta.yml (default GITHUB_USERNAME)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	cmd.Flags().StringSliceVarP(&modules, "modules", "m", nil, "Subset of the class's modules to expand")
	return cmd
}

// reapplyRecordedPatch carries a previously recorded <class>.diff over to a
// fresh expansion. When the patch no longer applies the fresh files win and
// the user reconciles by hand.
func reapplyRecordedPatch(dir, className string, fresh generate.FileSet) generate.FileSet {
	data, err := os.ReadFile(filepath.Join(dir, className+".diff"))
	if err != nil {
		return fresh
	}
	patches, err := patch.Parse(string(data))
	if err != nil {
		logger.Warn("recorded patch is unreadable, expanding without it", "class", className, "err", err)
		return fresh
	}
	patched, err := patch.ApplyFiles(fresh, patches)
	if err != nil {
		logger.Warn("recorded patch no longer applies, expanding without it", "class", className, "err", err)
		return fresh
	}
	logger.Info("reapplied recorded patch", "class", className)
	return generate.FileSet(patched)
}
