package objfile

import (
	"fmt"
	"os"
)

func verboseLogf(format string, args ...any) {
	if Verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
