package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ErrUsage marks command line mistakes.
var ErrUsage = errors.New("invalid usage")

// newRootCmd builds the md2ebook command tree bound to env.
func newRootCmd(env *Environment) *cobra.Command {
	var flags convertFlags

	root := &cobra.Command{
		Use:   "md2ebook [flags] FILE...",
		Short: "Convert markdown books to HTML, PDF, EPUB and MOBI",
		Long: `md2ebook converts markdown files into HTML, PDF, EPUB, MOBI and PRC.

The first '#' heading is the book title, the first '###' heading is the
author, and every '##' heading opens a chapter. Each output is written
next to its input unless --output is given.

PDF output needs Chrome or Chromium. MOBI and PRC output need kindlegen.`,
		Example: `  md2ebook book.md
  md2ebook -c cover.jpg -o dist book.md
  md2ebook --no-pdf --no-mobi --no-prc a.md b.md
  md2ebook -pdf -prc book.md`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return ErrNoInput
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			env.Logger = newLogger(env.Stderr, flags.common.verbose, flags.common.quiet)
			setMaxProcs(env)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), env, &flags, args)
		},
	}

	addConvertFlags(root.Flags(), &flags)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})
	root.SetVersionTemplate("md2ebook {{.Version}}\n")

	root.AddCommand(newDoctorCmd(env), newVersionCmd(env))
	return root
}

// newVersionCmd prints the build version.
func newVersionCmd(env *Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the md2ebook version",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(env.Stdout, "md2ebook %s\n", Version)
		},
	}
}
