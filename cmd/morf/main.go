package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/morf/internal/config"
	"github.com/funvibe/morf/internal/evaluator"
	"github.com/funvibe/morf/internal/pipeline"
)

const usage = `Usage: %s check [-v] <file|dir> [file2...]

Runs the queries of each session file and prints one verdict per query.
Exits with status 1 when a file fails to load or an expectation fails.

  -v    also print effects raised by invoke queries, the declared
        types and interner statistics
`

func main() {
	log.SetFlags(0)          // Disable timestamp in logs
	log.SetOutput(os.Stderr) // Verdicts go to stdout

	if handleHelp() {
		return
	}
	if len(os.Args) < 2 || os.Args[1] != "check" {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	paths, verbose, err := parseCheckArgs(os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n\n", err)
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}
	var files []string
	for _, arg := range paths {
		found, err := collectSessionFiles(arg)
		if err != nil {
			log.Fatalf("Error: %s", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	out := newPrinter(os.Stdout, colorEnabled(os.Stdout))
	failed := false
	for _, path := range files {
		if !checkFile(path, out, verbose) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		return false
	}
	switch os.Args[1] {
	case "-help", "--help", "help", "-h":
		fmt.Printf(usage, os.Args[0])
		return true
	}
	return false
}

// parseCheckArgs splits the arguments of the check command into paths and
// the verbose flag.
func parseCheckArgs(args []string) (paths []string, verbose bool, err error) {
	for _, arg := range args {
		if arg == "-v" || arg == "--verbose" {
			verbose = true
			continue
		}
		if strings.HasPrefix(arg, "-") {
			return nil, false, fmt.Errorf("unknown flag: %s", arg)
		}
		paths = append(paths, arg)
	}
	return paths, verbose, nil
}

// collectSessionFiles expands a directory into the session files it
// contains. A file argument is taken as is.
func collectSessionFiles(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}
	entries, err := os.ReadDir(arg)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && config.IsSessionFile(entry.Name()) {
			files = append(files, filepath.Join(arg, entry.Name()))
		}
	}
	return files, nil
}

// checkFile runs one session file and reports whether it passed.
func checkFile(path string, out *printer, verbose bool) bool {
	source, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading file: %s", err)
		return false
	}

	ctx := pipeline.NewPipelineContext(path, source)
	// Effects are collected per verdict; nothing else needs them.
	ctx.Effect = func(evaluator.EffectKind, any) {}
	ctx = pipeline.Check().Run(ctx)

	out.header(path)
	for _, err := range ctx.Errors {
		out.fail(err.Error())
	}
	for _, v := range ctx.Verdicts {
		if v.Passed {
			out.pass(v.String())
		} else {
			out.fail(v.String())
		}
		if verbose {
			for _, e := range v.Effects {
				out.note(e)
			}
		}
	}
	if verbose && ctx.Env != nil {
		stats := ctx.Env.Types.Stats()
		out.note(fmt.Sprintf("types: %s", strings.Join(ctx.Env.Names(), ", ")))
		out.note(fmt.Sprintf("interner: %d hits, %d misses, %d collisions", stats.Hits, stats.Misses, stats.Collisions))
	}
	return !ctx.Failed()
}

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiGreen = "\033[32m"
	ansiDim   = "\033[2m"
)

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) header(path string) { fmt.Fprintf(p.w, "=== %s ===\n", path) }
func (p *printer) pass(s string)      { fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiGreen, "ok  "), s) }
func (p *printer) fail(s string)      { fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiRed, "FAIL"), s) }
func (p *printer) note(s string)      { fmt.Fprintf(p.w, "     %s\n", p.paint(ansiDim, s)) }

// colorEnabled follows the NO_COLOR convention and only colors terminals.
func colorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
