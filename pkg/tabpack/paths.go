package tabpack

import "strings"

const (
	// Profile is the cargo profile every build uses
	Profile = "release"

	targetDir = "target"
)

// Artifacts holds the paths of the files involved in a single build, relative to the project
// directory and always separated by forward slashes.
type Artifacts struct {
	ELF string `yaml:"elf"`
	TAB string `yaml:"tab"`
	TBF string `yaml:"tbf"`
}

// ArtifactPaths derives the artifact locations for the given binary and target triple.
// The inputs are interpolated verbatim, no cleaning or validation takes place.
func ArtifactPaths(binary, triple string) Artifacts {
	releaseDir := strings.Join([]string{targetDir, triple, Profile}, "/")

	return Artifacts{
		ELF: releaseDir + "/" + binary,
		TAB: targetDir + "/" + binary + ".tab",
		TBF: releaseDir + "/" + binary + ".tbf",
	}
}
