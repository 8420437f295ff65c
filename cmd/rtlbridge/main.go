// rtlbridge converts VHDL entity/architecture files to Verilog or
// SystemVerilog, one file at a time or over a whole source tree.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hdltools/rtlbridge/internal/batch"
	"github.com/hdltools/rtlbridge/internal/config"
	"github.com/hdltools/rtlbridge/internal/core"
)

func main() {
	if len(os.Args) >= 2 && os.Args[1] == "init" {
		runInit()
		return
	}

	fs := flag.NewFlagSet("rtlbridge", flag.ExitOnError)
	dialectFlag := fs.String("dialect", "", "target dialect: legacy or strict (default strict)")
	outFlag := fs.String("o", "", "output file (single input) or directory (batch)")
	recursive := fs.Bool("r", true, "recurse into subdirectories on batch runs")
	strictWidth := fs.Bool("strict-width", false, "treat width mismatches as errors")
	configPath := fs.String("c", "", "config file path")
	analyze := fs.Bool("analyze", false, "print an analysis report instead of generating")
	watch := fs.Bool("watch", false, "watch a directory and retranspile on change")
	policyDir := fs.String("policy", "", "extra rego policy directory for the diagnostics gate")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Usage = printUsage
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}
	path := fs.Arg(0)

	cfg := loadConfig(*configPath, path, *verbose)
	if *dialectFlag != "" {
		cfg.Dialect = *dialectFlag
	}
	if *strictWidth {
		cfg.StrictWidth = true
	}
	if *policyDir != "" {
		cfg.Policy.Dir = *policyDir
	}

	info, err := os.Stat(path)
	if err != nil {
		fatal("%v", err)
	}

	switch {
	case *analyze:
		if info.IsDir() {
			fatal("-analyze takes a single file")
		}
		runAnalyze(path, cfg)
	case *watch:
		if !info.IsDir() {
			fatal("-watch takes a directory")
		}
		runWatch(path, cfg, *verbose)
	case info.IsDir():
		if *outFlag != "" {
			cfg.Output.Dir = *outFlag
		}
		if !*recursive {
			cfg.Sources = topLevelOnly(cfg.Sources)
		}
		runBatch(path, cfg, *verbose)
	default:
		runFile(path, *outFlag, cfg, *verbose)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: rtlbridge [command] [options] <file-or-directory>

Commands:
  init                Create a rtlbridge.json configuration file
  <path>              Transpile a file, or every source file under a directory

Options:
  -dialect <name>     Target dialect: legacy (.v) or strict (.sv, default)
  -o <path>           Output file (single input) or directory (batch)
  -r                  Recurse into subdirectories on batch runs (default true)
  -strict-width       Treat width mismatches as errors
  -analyze            Print an analysis report for one file
  -watch              Watch a directory and retranspile on change
  -policy <dir>       Extra rego policy directory for the diagnostics gate
  -c <file>           Config file path
  -v                  Verbose output

Configuration search path:
  1. ./rtlbridge.json
  2. ./.rtlbridge.json
  3. ~/.config/rtlbridge/config.json

Run 'rtlbridge init' to create a default configuration file.`)
}

func topLevelOnly(patterns []string) []string {
	var kept []string
	for _, p := range patterns {
		if !strings.Contains(p, "**") {
			kept = append(kept, p)
		}
	}
	return kept
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func loadConfig(configPath, root string, verbose bool) *config.Config {
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			fatal("loading config %s: %v", configPath, err)
		}
		return cfg
	}
	cfg, err := config.Load(root)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "no config found: %v (using defaults)\n", err)
		}
		return config.DefaultConfig()
	}
	return cfg
}

func runInit() {
	configPath := "rtlbridge.json"
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
		fatal("creating config: %v", err)
	}
	fmt.Printf("Created %s\n", configPath)
}

func runFile(path, out string, cfg *config.Config, verbose bool) {
	dialect, err := core.ParseDialect(cfg.Dialect)
	if err != nil {
		fatal("%v", err)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}
	output, diags, err := core.Transpile(string(source), dialect, core.Options{StrictWidth: cfg.StrictWidth})
	if err != nil {
		fatal("%s: %v", path, err)
	}
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, d)
	}
	if out == "" {
		fmt.Print(output)
		return
	}
	if err := os.WriteFile(out, []byte(output), 0o644); err != nil {
		fatal("%v", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}
}

func runAnalyze(path string, cfg *config.Config) {
	source, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}
	unit, err := core.ParseAndLowerWith(string(source), core.Options{StrictWidth: cfg.StrictWidth})
	if err != nil {
		fatal("%s: %v", path, err)
	}
	fmt.Print(core.Analyze(unit))
}

func runBatch(root string, cfg *config.Config, verbose bool) {
	ctx := context.Background()
	report, err := batch.Run(ctx, root, cfg)
	if err != nil {
		fatal("%v", err)
	}
	for _, fr := range report.Files {
		if fr.Status == "error" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", fr.Path, fr.Error)
			continue
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "%s -> %s\n", fr.Path, fr.Output)
		}
		for _, d := range fr.Diagnostics {
			fmt.Fprintf(os.Stderr, "%s: line %d: %s: %s [%s]\n", fr.Path, d.Line, d.Severity, d.Message, d.Rule)
		}
	}
	fmt.Fprintf(os.Stderr, "converted %d, failed %d (run %s)\n", report.Converted, report.Failed, report.RunID)

	result, err := batch.Gate(ctx, report, cfg)
	if err != nil {
		fatal("policy gate: %v", err)
	}
	for _, v := range result.Violations {
		fmt.Fprintf(os.Stderr, "policy %s: %s: line %d: %s [%s]\n", v.Severity, v.File, v.Line, v.Message, v.Rule)
	}
	if report.Failed > 0 || result.Failed() {
		os.Exit(1)
	}
}

func runWatch(root string, cfg *config.Config, verbose bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	fmt.Fprintf(os.Stderr, "watching %s\n", root)
	err := batch.Watch(ctx, root, cfg, func(fr batch.FileResult) {
		if fr.Status == "error" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", fr.Path, fr.Error)
			return
		}
		fmt.Fprintf(os.Stderr, "%s -> %s\n", fr.Path, fr.Output)
		if verbose {
			for _, d := range fr.Diagnostics {
				fmt.Fprintf(os.Stderr, "%s: line %d: %s: %s [%s]\n", fr.Path, d.Line, d.Severity, d.Message, d.Rule)
			}
		}
	})
	if err != nil && err != context.Canceled {
		fatal("%v", err)
	}
}
