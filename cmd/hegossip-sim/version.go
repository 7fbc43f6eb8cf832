package main

import (
	"fmt"
	"io"

	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip"
)

func versionCommand(stdout io.Writer) {
	fmt.Fprintf(stdout, "hegossip-sim %s (%s)\n", hegossip.LibraryVersion(), hegossip.GitCommit)
}
