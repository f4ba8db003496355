// acacalc — клиент калькулятора налогового кредита ACA: HTTP-сервер для UI и CLI для разовых расчётов.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd собирает дерево команд. Каждый вызов — новое дерево со сброшенными флагами.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "acacalc",
		Short: "ACA premium tax credit calculator",
		Long: "Calculates ACA premium tax credits for a household under current law (2026), " +
			"the IRA enhancement extension and the 700% FPL cap, with optional plain-language explanations.",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("env-file", "", "Path to .env file (default: .env if it exists)")

	root.AddCommand(serveCmd())
	root.AddCommand(calculateCmd())
	root.AddCommand(linkCmd())
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "acacalc %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
