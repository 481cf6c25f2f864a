// Command swift-demangle demangles legacy "_T"-prefixed Swift symbols,
// either given as arguments, read line by line from stdin, or discovered
// by scanning files matched by a glob pattern.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/appsworld/swift-demangle/demangle"
	"github.com/appsworld/swift-demangle/internal/scan"
)

var (
	noSugar  bool
	ivarType bool
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "swift-demangle [symbols...]",
		Short: "Demangle legacy _T-prefixed Swift symbols",
		RunE:  runDemangle,
	}
	root.PersistentFlags().BoolVar(&noSugar, "no-sugar", false, "disable Optional/Array/Dictionary sugar synthesis")
	root.PersistentFlags().BoolVar(&ivarType, "ivar-type", true, "include the field's type in field-offset output")
	root.AddCommand(newScanCommand())
	return root
}

func printerOptions() []demangle.Option {
	return []demangle.Option{
		demangle.WithSugar(!noSugar),
		demangle.WithIvarFieldOffsetType(ivarType),
	}
}

func runDemangle(cmd *cobra.Command, args []string) error {
	opts := printerOptions()
	if len(args) > 0 {
		for _, sym := range args {
			fmt.Fprintln(cmd.OutOrStdout(), demangle.DemangleSymbolAsString([]byte(sym), opts...))
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(cmd.OutOrStdout(), demangle.DemangleBlob(line, opts...))
	}
	return scanner.Err()
}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <glob> [more-globs...]",
		Short: "Scan files matching a doublestar glob and demangle embedded symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scan.Globs(args, printerOptions()...)
			if err != nil {
				return err
			}
			for _, file := range result.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n", file.Path)
				fmt.Fprintln(cmd.OutOrStdout(), file.Demangled)
			}
			cmd.PrintErrln(result.Summary())
			return nil
		},
	}
}
