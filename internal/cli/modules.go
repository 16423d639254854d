package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/me/nfclass/internal/generate"
	"github.com/me/nfclass/internal/prompt"
	"github.com/me/nfclass/internal/registry"
	"github.com/spf13/cobra"
)

func newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Work with class-based modules",
	}
	cmd.PersistentFlags().StringP("git-remote", "g", registry.DefaultModulesRemote, "Modules repository git remote")
	cmd.PersistentFlags().StringP("branch", "b", registry.DefaultBranch, "Branch to fetch classes from")

	cmd.AddCommand(newCreateFromClassCmd())
	return cmd
}

func newCreateFromClassCmd() *cobra.Command {
	var (
		dir          string
		author       string
		tool         string
		condaName    string
		condaVersion string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "create-from-class [class]",
		Short: "Scaffold a new module whose channels follow a class",
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
			cls, err := w.reg.Class(ctx, className)
			if err != nil {
				return err
			}

			name, err := resolveModuleName(tool)
			if err != nil {
				return err
			}
			authorHandle, err := resolveAuthor(author, false)
			if err != nil {
				return err
			}

			condaTool := lookupCondaTool(cmd, name, condaName, condaVersion)

			opts := generate.Options{Author: authorHandle, Org: w.repo.OrgPath}
			mod, err := generate.NewBuilder(logger).Module(cls, name, condaTool, opts)
			if err != nil {
				return err
			}

			dest := moduleDir(w, name)
			written, err := mod.Files.Write(dest, force)
			if err != nil {
				return err
			}
			logger.Info("created module", "module", name, "class", className, "dir", dest)
			for _, f := range written {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Modules repository checkout to write into")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author handle for meta.yml (default GITHUB_USERNAME)")
	cmd.Flags().StringVarP(&tool, "tool", "t", "", "Module name, e.g. mafft or clustalo/align")
	cmd.Flags().StringVarP(&condaName, "conda-name", "c", "", "Bioconda package when it differs from the tool name")
	cmd.Flags().StringVarP(&condaVersion, "conda-package-version", "p", "", "Pin a bioconda package version")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}

func resolveModuleName(flagValue string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(flagValue))
	if name == "" {
		answers, err := prompt.Ask([]prompt.Question{{
			Key:    "tool",
			Prompt: "Module name (tool or tool/subtool)",
		}})
		if err != nil {
			return "", err
		}
		name = strings.ToLower(strings.TrimSpace(answers["tool"]))
	}
	if name == "" {
		return "", fmt.Errorf("no module name given")
	}
	if strings.Count(name, "/") > 1 {
		return "", fmt.Errorf("module name %q must be tool or tool/subtool", name)
	}
	return name, nil
}

// lookupCondaTool queries the anaconda API for the tool's bioconda package.
// Lookup failures leave placeholders in the scaffold rather than aborting.
func lookupCondaTool(cmd *cobra.Command, module, condaName, condaVersion string) generate.CondaTool {
	name := condaName
	if name == "" {
		name = strings.Split(module, "/")[0]
	}
	pkg, err := registry.LookupBioconda(cmd.Context(), name, condaVersion)
	if err != nil {
		logger.Warn("bioconda lookup failed, leaving placeholders", "package", name, "err", err)
		return generate.CondaTool{Name: name, Version: condaVersion}
	}
	version := condaVersion
	if version == "" {
		version = pkg.LatestVersion
	}
	return generate.CondaTool{
		Name:    name,
		Version: version,
		Summary: pkg.Summary,
		DocURL:  pkg.DocURL,
		License: pkg.License,
	}
}

func moduleDir(w *workspace, module string) string {
	return filepath.Join(w.dir, "modules", w.repo.OrgPath, filepath.FromSlash(module))
}
