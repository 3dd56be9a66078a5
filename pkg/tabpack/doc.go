// Package tabpack builds a Rust binary for a Tock board and wraps the resulting ELF into a Tock
// application bundle (.tab) with elf2tab.
// Both tools are invoked through mvdan.cc/sh so commands are logged and can be replayed in a
// dry run exactly as they would be executed.
package tabpack
