// Command pdfmark talks to a pdfmark server: it uploads documents, lists
// them and prints or clears their markup.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
