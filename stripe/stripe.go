package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stripefs/stripefs/stripe/command"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
	}

	for _, cmd := range command.Commands {
		if cmd.Name() == args[0] && cmd.Runnable() {
			cmd.Flag.Usage = func() { cmd.Usage() }
			cmd.Flag.Parse(args[1:])
			if !cmd.Run(cmd, cmd.Flag.Args()) {
				fmt.Fprintf(os.Stderr, "\n")
				cmd.Flag.Usage()
			}
			return
		}
	}

	fmt.Fprintf(os.Stderr, "stripefs: unknown subcommand %q\n", args[0])
	usage()
}

func usage() {
	fmt.Fprintf(os.Stderr, "StripeFS: striped block reconstruction node\n\n")
	fmt.Fprintf(os.Stderr, "Usage: stripefs command [arguments]\n\nThe commands are:\n\n")
	for _, cmd := range command.Commands {
		fmt.Fprintf(os.Stderr, "    %-10s %s\n", cmd.Name(), cmd.Short)
	}
	fmt.Fprintln(os.Stderr)
	os.Exit(2)
}
