package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/me/nfclass/internal/lint"
	"github.com/me/nfclass/internal/patch"
	"github.com/me/nfclass/internal/registry"
	"github.com/spf13/cobra"
)

// ErrNoPatchNeeded is returned when a component matches a fresh expansion
// and there is nothing to record.
var ErrNoPatchNeeded = errors.New("component matches a fresh expansion, no patch needed")

func newClassesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Check and reconcile expanded classes",
	}
	cmd.PersistentFlags().StringP("git-remote", "g", registry.DefaultModulesRemote, "Modules repository git remote")
	cmd.PersistentFlags().StringP("branch", "b", registry.DefaultBranch, "Branch to fetch classes and modules from")

	cmd.AddCommand(newClassesLintCmd(), newClassesPatchCmd())
	return cmd
}

func newClassesLintCmd() *cobra.Command {
	var (
		dir        string
		author     string
		all        bool
		showPassed bool
		sortBy     string
	)

	cmd := &cobra.Command{
		Use:   "lint [class]",
		Short: "Check expanded subworkflows against a fresh expansion",
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

			var classes []string
			switch {
			case len(args) == 1:
				classes = []string{strings.ToLower(args[0])}
			case all:
				classes, err = expandedClasses(w)
				if err != nil {
					return err
				}
				if len(classes) == 0 {
					logger.Info("no expanded classes found", "dir", dir)
					return nil
				}
			default:
				name, err := resolveClassName(ctx, w.reg, "", false)
				if err != nil {
					return err
				}
				classes = []string{name}
			}

			results, err := lintClasses(ctx, w, classes, author)
			if err != nil {
				return err
			}
			sortResults(results, sortBy)
			fmt.Fprint(cmd.OutOrStdout(), lint.Report(results, showPassed))

			for _, res := range results {
				if !res.OK() {
					return fmt.Errorf("lint failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Modules repository checkout to lint")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author handle used when re-expanding")
	cmd.Flags().BoolVar(&all, "all", false, "Lint every expanded class in the checkout")
	cmd.Flags().BoolVar(&showPassed, "show-passed", false, "List passing checks too")
	cmd.Flags().StringVar(&sortBy, "sort-by", "component", "Order results by component or failures")
	return cmd
}

func lintClasses(ctx context.Context, w *workspace, classes []string, author string) ([]*lint.Result, error) {
	linter := lint.New(logger)
	results := make([]*lint.Result, 0, len(classes))
	for _, className := range classes {
		swf, err := expandClass(ctx, w, className, nil, lintAuthor(w, className, author))
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", className, err)
		}
		res, err := linter.Component(className, subworkflowDir(w, className), swf.Files)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// lintAuthor picks the author for the comparison expansion: the flag when
// given, otherwise the authors entry of the on-disk meta.yml so authorship
// alone never fails a lint.
func lintAuthor(w *workspace, className, explicit string) string {
	if explicit != "" {
		return explicit
	}
	data, err := os.ReadFile(filepath.Join(subworkflowDir(w, className), "meta.yml"))
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "- \"@") {
			return strings.Trim(strings.TrimPrefix(line, "- "), `"`)
		}
	}
	return ""
}

func sortResults(results []*lint.Result, sortBy string) {
	switch sortBy {
	case "failures":
		sort.SliceStable(results, func(i, j int) bool {
			return len(results[i].Failed) > len(results[j].Failed)
		})
	default:
		sort.Slice(results, func(i, j int) bool {
			return results[i].Component < results[j].Component
		})
	}
}

// expandedClasses lists the class components present under subworkflows/.
func expandedClasses(w *workspace) ([]string, error) {
	base := filepath.Join(w.dir, "subworkflows", w.repo.OrgPath)
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", base, err)
	}
	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	return classes, nil
}

func newClassesPatchCmd() *cobra.Command {
	var (
		dir       string
		author    string
		noPrompts bool
	)

	cmd := &cobra.Command{
		Use:   "patch [class]",
		Short: "Record local edits to an expanded subworkflow as a diff",
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
			className, err := resolveClassName(ctx, w.reg, arg, noPrompts)
			if err != nil {
				return err
			}

			swf, err := expandClass(ctx, w, className, nil, lintAuthor(w, className, author))
			if err != nil {
				return err
			}

			componentDir := subworkflowDir(w, className)
			disk := make(map[string]string, len(swf.Files))
			for rel := range swf.Files {
				data, err := os.ReadFile(filepath.Join(componentDir, filepath.FromSlash(rel)))
				if err != nil {
					if os.IsNotExist(err) {
						continue
					}
					return fmt.Errorf("read %s: %w", rel, err)
				}
				disk[rel] = string(data)
			}

			text, changed, err := patch.Diff(disk, swf.Files)
			if err != nil {
				return err
			}
			if !changed {
				return ErrNoPatchNeeded
			}

			diffPath := filepath.Join(componentDir, className+".diff")
			if err := os.WriteFile(diffPath, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write patch: %w", err)
			}
			logger.Info("recorded patch", "class", className, "path", diffPath)
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Modules repository checkout")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author handle used when re-expanding")
	cmd.Flags().BoolVar(&noPrompts, "no-prompts", false, "Fail instead of prompting for missing values")
	return cmd
}
