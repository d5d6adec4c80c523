package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/petiaccja/sorbit"
	"github.com/petiaccja/sorbit/ir"
)

func main() {
	var (
		out         = pflag.StringP("out", "o", "", "Output file (default <package><suffix>.go next to the inputs)")
		configPath  = pflag.StringP("config", "c", "", "Path to a sorbit.yaml config file")
		dumpIR      = pflag.Bool("dump-ir", false, "Print the lowered op programs instead of generating code")
		verbose     = pflag.BoolP("verbose", "v", false, "Enable debug logging")
		interactive = pflag.BoolP("interactive", "i", false, "Interactive inspector TUI")
	)
	pflag.Parse()

	if pflag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: sorbit-gen [flags] <file.go>...")
		pflag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if pflag.CommandLine.Changed("out") {
		cfg.Out = *out
	}
	if *verbose {
		cfg.Verbose = true
	}

	if cfg.Verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		ir.SetLogger(logger)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(pflag.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(pflag.Args(), cfg, *dumpIR); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(files []string, cfg *config, dumpIR bool) error {
	res, err := sorbit.Compile(files...)
	if err != nil {
		return err
	}

	if dumpIR {
		for _, p := range res.Programs {
			fmt.Println(p.String())
		}
		return nil
	}

	out := cfg.Out
	if out == "" {
		out = filepath.Join(filepath.Dir(files[0]), res.Package+cfg.Suffix+".go")
	}
	if err := os.WriteFile(out, res.Source, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("Wrote %s (%d types)\n", out, len(res.Programs))
	return nil
}
