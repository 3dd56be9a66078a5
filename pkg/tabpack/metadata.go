package tabpack

import (
	"strconv"

	"github.com/Masterminds/semver/v3"
)

const (
	// StackSize is the stack reservation (in bytes) written into the TBF header
	StackSize = 1024
	// MinFooterSize is the minimum space (in bytes) reserved for TBF footers (i.e. credentials)
	MinFooterSize = 256
)

// KernelVersion is the Tock kernel release the packaged apps declare compatibility with.
// Only major and minor are passed on to elf2tab.
var KernelVersion = semver.MustParse("2.1")

// PackageMeta contains the metadata elf2tab embeds into the application bundle
type PackageMeta struct {
	Name          string
	Kernel        *semver.Version
	StackSize     int
	MinFooterSize int
}

// NewPackageMeta returns the metadata used for every bundle produced by tabpack
func NewPackageMeta(name string) PackageMeta {
	return PackageMeta{
		Name:          name,
		Kernel:        KernelVersion,
		StackSize:     StackSize,
		MinFooterSize: MinFooterSize,
	}
}

// Args renders the metadata as elf2tab flags followed by the output flag and the input ELF.
func (m PackageMeta) Args(output, input string) []string {
	return []string{
		"-n", m.Name,
		"--kernel-major", strconv.FormatUint(m.Kernel.Major(), 10),
		"--kernel-minor", strconv.FormatUint(m.Kernel.Minor(), 10),
		"--stack", strconv.Itoa(m.StackSize),
		"--minimum-footer-size", strconv.Itoa(m.MinFooterSize),
		"-o", output,
		input,
	}
}
