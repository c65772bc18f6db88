// =============================================================================
// sv-autoexpand - Main Entry Point
// =============================================================================
//
// Expands /*AUTO...*/ directives in a SystemVerilog file the way the
// language server does, but from the command line:
//
//   1. The target file and project files are parsed into module surfaces
//   2. The project resolver links instance names to module declarations
//   3. The expansion engine rewrites each AUTO directive in place
//   4. The result is printed, diffed, or written back
//
// =============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/kirkster96/verible/internal/autoexpand"
	"github.com/kirkster96/verible/internal/config"
	"github.com/kirkster96/verible/internal/project"
	"github.com/kirkster96/verible/internal/sv"
)

type options struct {
	target       string
	projectFiles []string
	configPath   string
	write        bool
	diff         bool
	verbose      bool
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	if os.Args[1] == "init" {
		runInit()
		return
	}
	if os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		printUsage()
		return
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: sv-autoexpand [options] <file.sv>

Commands:
  init              Create a sv_autoexpand.json configuration file
  <file.sv>         Expand AUTO directives in the given file

Options:
  -p <file>         Add a project file (repeatable); module declarations
                    in project files resolve AUTOINST targets
  -c <config>       Load a specific config file instead of searching
  -w                Rewrite the file in place
  -d                Print a unified diff instead of the expanded text
  -v, --verbose     Enable verbose logging
  -h, --help        Show this help message

Without -p, project files come from the globs in sv_autoexpand.json.`)
}

func parseArgs(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-p needs a file argument")
			}
			opts.projectFiles = append(opts.projectFiles, args[i])
		case "-c":
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("-c needs a file argument")
			}
			opts.configPath = args[i]
		case "-w":
			opts.write = true
		case "-d":
			opts.diff = true
		case "-v", "--verbose":
			opts.verbose = true
		default:
			if opts.target != "" {
				return nil, fmt.Errorf("unexpected argument %q", args[i])
			}
			opts.target = args[i]
		}
	}
	if opts.target == "" {
		return nil, fmt.Errorf("no input file")
	}
	return opts, nil
}

func runInit() {
	configPath := "sv_autoexpand.json"

	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file %s already exists. Overwrite? [y/N]: ", configPath)
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return
		}
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created %s\n", configPath)
}

func run(opts *options) error {
	verbosity := 0
	if opts.verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("sv-autoexpand")

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	content, err := os.ReadFile(opts.target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.target, err)
	}
	before := string(content)

	proj := project.New()
	proj.SetBuffer(sv.ParseFile(opts.target, before))

	paths := opts.projectFiles
	if len(paths) == 0 {
		paths, err = cfg.ResolveFiles(".")
		if err != nil {
			return err
		}
		// the target itself may match the project globs
		filtered := paths[:0]
		for _, p := range paths {
			if p != opts.target {
				filtered = append(filtered, p)
			}
		}
		paths = filtered
	}
	if err := proj.LoadFiles(paths, cfg.MaxParallelFiles); err != nil {
		return err
	}
	log.Info("project loaded", "files", len(paths)+1)

	engine := autoexpand.New(proj)
	after := autoexpand.ApplyEdits(proj.Buffer(), engine.ExpandFile(proj.Buffer()))
	log.Info("expansion done", "changed", after != before)

	switch {
	case opts.write:
		if after == before {
			return nil
		}
		return os.WriteFile(opts.target, []byte(after), 0644)
	case opts.diff:
		diff := difflib.UnifiedDiff{
			A:        difflib.SplitLines(before),
			B:        difflib.SplitLines(after),
			FromFile: opts.target,
			ToFile:   opts.target + " (expanded)",
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(diff)
		if err != nil {
			return err
		}
		fmt.Print(text)
	default:
		fmt.Print(after)
	}
	return nil
}
