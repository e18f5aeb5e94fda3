// Command satvm is a thin CLI wrapper around the saturate package (spec §1:
// "Out of scope (external collaborators): Command-line argument parsing,
// file I/O of source text, JSON pretty-printing"). Modeled on the teacher's
// cli/main.go: a cobra root command, a file-or-stdin reader, and an optional
// fsnotify-driven watch mode, all external to the deterministic core.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	saturate "github.com/satlang/saturate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "satvm",
		Short: "Run and validate SATURATE VM programs",
	}
	root.AddCommand(newCheckCmd(), newRunCmd())
	return root
}

// flagSet carries the shared --max-* bound flags and --trace, parsed by
// both subcommands.
type flagSet struct {
	maxOps         int
	maxStack       int
	maxSaturate    int
	maxBindings    int
	maxNesting     int
	maxTokens      int
	maxSourceBytes int
	maxSymbolLen   int
	trace          bool
}

func addBoundFlags(cmd *cobra.Command, f *flagSet) {
	def := saturate.DefaultConfig()
	cmd.Flags().IntVar(&f.maxOps, "max-ops", def.MaxOps, "maximum executed operations before TERM_OP_LIMIT")
	cmd.Flags().IntVar(&f.maxStack, "max-stack", def.MaxStack, "maximum stack depth before ERR_STACK_OVERFLOW")
	cmd.Flags().IntVar(&f.maxSaturate, "max-saturate", def.MaxSaturate, "maximum SATURATE iterations before TERM_CYCLE_LIMIT")
	cmd.Flags().IntVar(&f.maxBindings, "max-bindings", def.MaxBindings, "maximum bindings entries before ERR_BINDINGS_OVERFLOW")
	cmd.Flags().IntVar(&f.maxNesting, "max-nesting", def.MaxNesting, "maximum block nesting depth")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", def.MaxTokens, "maximum lexed token count")
	cmd.Flags().IntVar(&f.maxSourceBytes, "max-source-bytes", def.MaxSourceBytes, "maximum source length in bytes")
	cmd.Flags().IntVar(&f.maxSymbolLen, "max-symbol-len", def.MaxSymbolLen, "maximum byte length of a single symbol")
	cmd.Flags().BoolVar(&f.trace, "trace", def.TraceEnabled, "record a WITNESS checkpoint trace in the result")
}

func (f *flagSet) toConfig() (*saturate.Config, error) {
	return saturate.NewConfig(saturate.Config{
		MaxOps:         f.maxOps,
		MaxStack:       f.maxStack,
		MaxSaturate:    f.maxSaturate,
		MaxBindings:    f.maxBindings,
		MaxNesting:     f.maxNesting,
		MaxTokens:      f.maxTokens,
		MaxSourceBytes: f.maxSourceBytes,
		MaxSymbolLen:   f.maxSymbolLen,
		TraceEnabled:   f.trace,
	})
}

func newCheckCmd() *cobra.Command {
	var f flagSet
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Lex and parse a program without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.toConfig()
			if err != nil {
				return err
			}
			source, err := readSource(file)
			if err != nil {
				return err
			}
			warnings, err := saturate.Check(source, cfg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return fmt.Errorf("check failed")
			}
			for _, w := range warnings {
				fmt.Fprintln(os.Stderr, "warning:", w)
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to source file, or '-' for stdin")
	addBoundFlags(cmd, &f)
	return cmd
}

func newRunCmd() *cobra.Command {
	var f flagSet
	var file string
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a program and print its result record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.toConfig()
			if err != nil {
				return err
			}
			if watch {
				if file == "-" {
					return fmt.Errorf("--watch requires --file to name a real file, not stdin")
				}
				return watchAndRun(file, cfg)
			}
			source, err := readSource(file)
			if err != nil {
				return err
			}
			return printResult(source, cfg)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "path to source file, or '-' for stdin")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-run whenever the source file changes on disk")
	addBoundFlags(cmd, &f)
	return cmd
}

func printResult(source []byte, cfg *saturate.Config) error {
	result := saturate.Run(source, cfg)
	out, err := result.JSON()
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// watchAndRun re-runs the program each time path changes on disk. This is
// pure CLI convenience: the VM's Run function is never aware it is being
// re-invoked, and watch mode never influences determinism of a single run
// (spec §1 "no clock ... observable to a program").
func watchAndRun(path string, cfg *saturate.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	runOnce := func() {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error reading source:", err)
			return
		}
		if err := printResult(source, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}

	runOnce()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				runOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		}
	}
}

func readSource(file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(file)
}
