package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
)

// FileSet maps component-relative paths to rendered contents.
type FileSet map[string]string

// Write writes the files under dir, creating directories as needed. When
// force is false an existing destination file is an error.
func (fs FileSet) Write(dir string, force bool) ([]string, error) {
	var written []string
	for rel, content := range fs {
		dest := filepath.Join(dir, filepath.FromSlash(rel))
		if !force {
			if _, err := os.Stat(dest); err == nil {
				return nil, fmt.Errorf("file %s already exists, use --force to overwrite", dest)
			}
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Dir(dest), err)
		}
		// write-then-rename so a failed run never leaves half a file
		tmp := dest + ".tmp-" + uuid.NewString()[:8]
		if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", dest, err)
		}
		if err := os.Rename(tmp, dest); err != nil {
			os.Remove(tmp)
			return nil, fmt.Errorf("write %s: %w", dest, err)
		}
		written = append(written, dest)
	}
	return written, nil
}

func renderTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}

var subworkflowMainTemplate = template.Must(template.New("subworkflow/main.nf").Parse(
	`{{.Includes}}
workflow {{.Name}} {

    take:
{{.Take}}

    main:
{{.Body}}

    emit:
{{.Emits}}
}
`))

var subworkflowTestTemplate = template.Must(template.New("subworkflow/tests/main.nf.test").Parse(
	`nextflow_workflow {

    name "Test Subworkflow {{.Name}}"
    script "../main.nf"
    workflow "{{.Name}}"

    tag "subworkflows"
    tag "subworkflows_{{.OrgAlpha}}"
    tag "subworkflows/{{.Class}}"
{{.Tags}}

{{.Tests}}
}
`))

var moduleMainTemplate = template.Must(template.New("module/main.nf").Parse(
	`process {{.Name}} {
    tag "$meta.id"
    label 'process_single'

    conda "${moduleDir}/environment.yml"
    container "${ workflow.containerEngine == 'singularity' && !task.ext.singularity_pull_docker_container ?
        'https://depot.galaxyproject.org/singularity/{{.Tool}}:{{.Version}}' :
        'biocontainers/{{.Tool}}:{{.Version}}' }"

    input:
{{.Inputs}}
    output:
{{.Outputs}}    path "versions.yml", emit: versions

    when:
    task.ext.when == null || task.ext.when

    script:
    def args = task.ext.args ?: ''
    def prefix = task.ext.prefix ?: "${meta.id}"
    """
    {{.Tool}} \\
        $args

    cat <<-END_VERSIONS > versions.yml
    "${task.process}":
        {{.Tool}}: \$({{.Tool}} --version)
    END_VERSIONS
    """

    stub:
    def prefix = task.ext.prefix ?: "${meta.id}"
    """
    touch ${prefix}.out

    cat <<-END_VERSIONS > versions.yml
    "${task.process}":
        {{.Tool}}: \$({{.Tool}} --version)
    END_VERSIONS
    """
}
`))

var moduleTestTemplate = template.Must(template.New("module/tests/main.nf.test").Parse(
	`nextflow_process {

    name "Test Process {{.Name}}"
    script "../main.nf"
    process "{{.Name}}"

    tag "modules"
    tag "modules_{{.OrgAlpha}}"
    tag "{{.ModuleTag}}"

    test("{{.Tool}}") {

        when {
            process {
                """
{{.Inputs}}                """
            }
        }

        then {
            assertAll(
                { assert process.success },
                { assert snapshot(process.out).match() }
            )
        }
    }
}
`))

var environmentTemplate = template.Must(template.New("module/environment.yml").Parse(
	`channels:
  - conda-forge
  - bioconda
dependencies:
  - "bioconda::{{.Tool}}={{.Version}}"
`))
