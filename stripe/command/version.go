package command

import (
	"fmt"
	"runtime"

	"github.com/stripefs/stripefs/stripe/util"
)

var cmdVersion = &Command{
	Run:       runVersion,
	UsageLine: "version",
	Short:     "print StripeFS version",
	Long:      `Version prints the StripeFS version`,
}

func runVersion(cmd *Command, args []string) bool {
	if len(args) != 0 {
		cmd.Usage()
	}

	fmt.Printf("version %s %s %s\n", util.Version, runtime.GOOS, runtime.GOARCH)
	return true
}
