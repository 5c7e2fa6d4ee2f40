package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/xyproto/env/v2"

	"github.com/flightctl/elf-parser/internal/inspect"
	"github.com/flightctl/elf-parser/internal/mapfile"
	"github.com/flightctl/elf-parser/internal/report"
	"github.com/flightctl/elf-parser/internal/scanner"
	"github.com/flightctl/elf-parser/pkg/elfinfo"
)

var (
	debugEnabled bool
	noColor      bool
	abiFlag      string
	help         bool
)

var (
	info    = color.New(color.Bold).PrintfFunc()
	success = color.New(color.Bold, color.FgGreen).PrintfFunc()
	failure = color.New(color.Bold, color.FgRed).PrintfFunc()
)

var logger = log.NewNopLogger()

func debug(format string, a ...interface{}) {
	level.Debug(logger).Log("msg", fmt.Sprintf(format, a...))
}

func usage(err error) {
	fd, rc := os.Stdout, 0
	if err != nil {
		fd, rc = os.Stderr, 2
		fmt.Fprintf(fd, "Error: %v\n\n", err)
	}

	fmt.Fprintf(fd, `%[1]s decodes the sections, segments, symbols and relocations of 64-bit ELF binaries.

Usage:
  %[1]s [flags] header <path_to_binary>
  %[1]s [flags] sections <path_to_binary>
  %[1]s [flags] segments <path_to_binary>
  %[1]s [flags] symbols <path_to_binary>
  %[1]s [flags] relocations <path_to_binary>
  %[1]s [flags] all <path_to_binary>
  %[1]s [flags] scan <path_to_directory>

Flags:
  --debug             Enable debug output ($ELF_PARSER_DEBUG)
  --no-color          Disable colored output ($NO_COLOR)
  --abi <constraint>  Require an ABI tag whose kernel satisfies constraint, e.g. ">= 3.2" ($ELF_PARSER_ABI)
  --help              Show this help message
`, filepath.Base(os.Args[0]))

	os.Exit(rc)
}

func main() {
	flag.BoolVar(&debugEnabled, "debug", env.Bool("ELF_PARSER_DEBUG"), "Enable debug output")
	flag.BoolVar(&noColor, "no-color", env.Bool("NO_COLOR"), "Disable colored output")
	flag.StringVar(&abiFlag, "abi", env.Str("ELF_PARSER_ABI"), "Kernel version constraint for the ABI tag")
	flag.BoolVar(&help, "help", false, "Show help")
	flag.Usage = func() { usage(nil) }
	flag.Parse()

	if help {
		usage(nil)
	}

	color.NoColor = noColor || !isatty.IsTerminal(os.Stdout.Fd())

	allow := level.AllowInfo()
	if debugEnabled {
		allow = level.AllowDebug()
	}
	logger = level.NewFilter(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), allow)

	args := flag.Args()
	if len(args) != 2 {
		usage(fmt.Errorf("incorrect number of arguments"))
	}
	mode := args[0]
	target := args[1]

	var abi *semver.Constraints
	if abiFlag != "" {
		c, err := inspect.ParseABIConstraint(abiFlag)
		if err != nil {
			usage(err)
		}
		abi = c
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	valid := true
	var err error
	switch mode {
	case "header", "sections", "segments", "symbols", "relocations", "all":
		err = printBinary(mode, target)
	case "scan":
		valid, err = scanDirTree(ctx, target, abi)
	default:
		usage(fmt.Errorf("unknown mode %q", mode))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !valid {
		failure("Inspection failed\n")
		os.Exit(1)
	}
	if mode == "scan" {
		success("Inspection successful\n")
	}
}

func printBinary(mode, binaryPath string) error {
	path, err := filepath.Abs(binaryPath)
	if err != nil {
		return errors.Wrap(err, "failed to get absolute path")
	}
	debug("decoding %s", path)

	f, err := mapfile.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	debug("mapped %d bytes", f.Len())

	img, err := elfinfo.New(f.Bytes(), elfinfo.WithLogger(logger))
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}

	out := os.Stdout
	switch mode {
	case "header":
		report.Header(out, img.Header())
	case "sections":
		sections, err := img.Sections()
		if err != nil {
			return err
		}
		report.Sections(out, sections)
	case "segments":
		segments, err := img.Segments()
		if err != nil {
			return err
		}
		report.Segments(out, segments)
	case "symbols":
		symbols, err := img.Symbols()
		if err != nil {
			return err
		}
		report.Symbols(out, symbols)
	case "relocations":
		relocations, err := img.Relocations()
		if err != nil {
			return err
		}
		report.Relocations(out, relocations)
	case "all":
		return report.Image(out, img)
	}
	return nil
}

func scanDirTree(ctx context.Context, dirPath string, abi *semver.Constraints) (bool, error) {
	path, err := filepath.Abs(dirPath)
	if err != nil {
		return false, errors.Wrap(err, "failed to get absolute path")
	}
	info("Inspecting %q:\n", path)
	if abi != nil {
		debug("requiring ABI tag kernel %s", abi)
	}

	return scanner.ScanDirTree(ctx, path, abi, logger), nil
}
