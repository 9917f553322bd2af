package main

import (
	"fmt"
	"io"
	"os"

	"github.com/decaflang/dcc/pkg/ast"
	"github.com/decaflang/dcc/pkg/backend"
	"github.com/decaflang/dcc/pkg/cfg"
	"github.com/decaflang/dcc/pkg/liveness"
	"github.com/decaflang/dcc/pkg/tac"
	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputFile string
	debugStage string
)

var rootCmd = &cobra.Command{
	Use:   "dcc [source.json]",
	Short: "Decaf-to-MIPS compiler back end",
	Long: `dcc compiles a checked Decaf AST to MIPS assembly.

Input is a JSON-encoded checked AST, produced by a Decaf front end
(lexer, parser, semantic analyzer) that is not part of this tool. Read
from the given file, or from stdin if no file is given.

DEBUG DUMPS

  -d tac   dump the three-address code the TAC Emitter produced
  -d cfg   dump each instruction with the indices of its successors
  -d live  dump liveness sets at every CFG node

Without -d, dcc runs the full pipeline and writes MIPS assembly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			inputFile = args[0]
		}
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().StringVarP(&debugStage, "debug", "d", "", "dump an intermediate stage instead of assembly (tac, cfg, live)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dcc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	data, err := readInput()
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	prog, err := ast.DecodeProgram(data)
	if err != nil {
		return err
	}

	pipeline := backend.New()

	var out string
	switch debugStage {
	case "":
		result, err := pipeline.Compile(prog)
		if err != nil {
			return err
		}
		out = result.Assembly
	case "tac":
		tacProg, err := pipeline.EmitTAC(prog)
		if err != nil {
			return err
		}
		out = tacProg.Dump()
	case "cfg":
		tacProg, err := pipeline.EmitTAC(prog)
		if err != nil {
			return err
		}
		out = cfg.Dump(tacProg.Instructions)
	case "live":
		tacProg, err := pipeline.EmitTAC(prog)
		if err != nil {
			return err
		}
		out = dumpLiveness(tacProg.Instructions)
	default:
		return fmt.Errorf("unknown debug stage %q (want tac, cfg, or live)", debugStage)
	}

	return writeOutput(out)
}

// dumpLiveness runs liveness analysis per function and renders the live
// sets the same way -d tac renders instructions, since liveness has no
// single-program entry point of its own (pkg/backend.Allocate folds it
// straight into register allocation).
func dumpLiveness(instrs []*tac.Instruction) string {
	var out string
	for _, fn := range backend.SplitFunctions(instrs) {
		liveness.Analyze(fn)
		out += liveness.Dump(fn)
	}
	return out
}

func readInput() ([]byte, error) {
	if inputFile == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(inputFile)
}

func writeOutput(s string) error {
	if outputFile == "" {
		_, err := fmt.Fprint(os.Stdout, s)
		return err
	}
	return os.WriteFile(outputFile, []byte(s), 0644)
}
