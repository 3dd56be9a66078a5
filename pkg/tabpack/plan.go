package tabpack

import (
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Plan describes what a run would do without doing it
type Plan struct {
	Binary    string    `yaml:"binary"`
	Target    string    `yaml:"target"`
	Profile   string    `yaml:"profile"`
	Artifacts Artifacts `yaml:"artifacts"`
	Commands  []string  `yaml:"commands"`
}

// Plan returns the steps Run would perform for the given binary and target triple
func (d *Driver) Plan(binary, triple string) (Plan, error) {
	artifacts := ArtifactPaths(binary, triple)
	plan := Plan{
		Binary:    binary,
		Target:    triple,
		Profile:   Profile,
		Artifacts: artifacts,
	}

	for _, argv := range [][]string{d.BuildCommand(binary, triple), d.PackageCommand(binary, artifacts)} {
		line, err := FormatCommand(argv)
		if err != nil {
			return plan, err
		}
		plan.Commands = append(plan.Commands, line)
	}

	return plan, nil
}

// WriteYAML writes the plan as a YAML document
func (p Plan) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	err := encoder.Encode(p)
	if err != nil {
		return eris.Wrap(err, "failed to encode plan")
	}

	return encoder.Close()
}
