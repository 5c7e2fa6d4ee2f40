package inspect

import (
	"context"
	"debug/elf"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/flightctl/elf-parser/pkg/elfinfo"
)

// ParseABIConstraint parses a kernel version constraint such as ">= 3.2"
// for use with Binary.
func ParseABIConstraint(str string) (*semver.Constraints, error) {
	c, err := semver.NewConstraint(str)
	if err != nil {
		return nil, errors.Wrapf(err, "can't parse ABI constraint %q", str)
	}
	return c, nil
}

// Binary decodes the ELF image at rootPath/path and checks that its tables
// are consistent. When abi is set, the image must carry an ABI tag whose
// minimum kernel satisfies it. Files that are not ELF64 images are skipped
// and count as success.
func Binary(_ context.Context, rootPath string, path string, abi *semver.Constraints, logger log.Logger) bool {
	var errs []error
	success := color.New(color.Bold, color.FgGreen).PrintfFunc()
	failure := color.New(color.Bold, color.FgRed).PrintfFunc()
	red := color.New(color.Bold, color.FgRed).SprintfFunc()

	fmt.Printf("• inspecting binary %s... ", path)

	ei, err := elfinfo.ReadFile(filepath.Join(rootPath, path), elfinfo.WithLogger(logger))
	switch {
	case err == nil:
	case errors.Is(err, elfinfo.ErrUnsupportedFormat):
		if strings.Contains(err.Error(), "bad magic number [35 33") {
			fmt.Printf("skipped (shell script)\n")
		} else {
			fmt.Printf("skipped (%v)\n", err)
		}
		return true // Skip is considered success
	default:
		failure("failed\n")
		fmt.Printf("  %s %v\n", red("✘"), err)
		return false
	}
	level.Debug(logger).Log("msg", "decoded binary", "path", path, "sections", len(ei.Sections), "segments", len(ei.Segments), "symbols", len(ei.Symbols))

	errs = append(errs, validateEntryPoint(ei)...)
	errs = append(errs, validateInterpreter(ei)...)
	errs = append(errs, validateSymbolSections(ei)...)
	if abi != nil {
		errs = append(errs, validateABI(ei, abi)...)
	}

	if len(errs) > 0 {
		failure("failed\n")
		for _, e := range errs {
			fmt.Printf("  %s %v\n", red("✘"), e)
		}
		return false
	}
	success("success\n")
	return true
}

func validateEntryPoint(info *elfinfo.ElfInfo) []error {
	if info.Entry == 0 || (info.Type != elf.ET_EXEC && info.Type != elf.ET_DYN) {
		return []error{}
	}
	for _, s := range info.Segments {
		if s.Type != elfinfo.SegmentLoad || s.Flags&elfinfo.SegmentExecute == 0 {
			continue
		}
		if info.Entry >= s.VirtAddr && info.Entry-s.VirtAddr < s.MemSize {
			return []error{}
		}
	}
	return []error{fmt.Errorf("entry point 0x%x is outside every executable PT_LOAD segment", info.Entry)}
}

func validateInterpreter(info *elfinfo.ElfInfo) []error {
	if !info.IsStatic && info.Interpreter == "" {
		return []error{fmt.Errorf("empty PT_INTERP segment")}
	}
	return []error{}
}

func validateSymbolSections(info *elfinfo.ElfInfo) []error {
	var errs []error
	for _, sym := range info.Symbols {
		if sym.SectionIndex.IsReserved() || sym.SectionIndex >= elfinfo.SectionIndex(elf.SHN_LORESERVE) {
			continue
		}
		if int(sym.SectionIndex) >= len(info.Sections) {
			errs = append(errs, fmt.Errorf("symbol %q in %s refers to missing section %d", sym.Name, sym.Table, sym.SectionIndex))
		}
	}
	return errs
}

func validateABI(info *elfinfo.ElfInfo, abi *semver.Constraints) []error {
	if info.ABI == nil {
		return []error{fmt.Errorf("missing .note.ABI-tag, required by ABI constraint %s", abi)}
	}
	if !abi.Check(info.ABI.Kernel) {
		return []error{fmt.Errorf("requires %s kernel %s, which does not satisfy %s", info.ABI.OS, info.ABI.Kernel, abi)}
	}
	return []error{}
}
