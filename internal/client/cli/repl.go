package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	New(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Report(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, path string) error
}

const helpText = `Available commands:
  new                 start a new inspection
  edit <id>           edit a saved inspection
  list | l            list saved inspections
  show <id>           print the stored record
  report <id>         print the inspection report
  delete <id>         delete an inspection
  export <file.xlsx>  export all inspections to a spreadsheet
  exit | quit         leave the program`

// runREPL reads one command per line from r and dispatches it to a. The loop
// exits on EOF, on "exit" or "quit", or when ctx is cancelled. Command errors
// are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, prompt string, r *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		if prompt != "" {
			fmt.Print(prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		withID := func(fn func(context.Context, string) error) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: %s <id>", cmd)
			}
			return fn(ctx, args[0])
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "new":
			cmdErr = a.New(ctx)
		case "edit":
			cmdErr = withID(a.Edit)
		case "l", "list":
			cmdErr = a.List(ctx)
		case "show":
			cmdErr = withID(a.Show)
		case "report":
			cmdErr = withID(a.Report)
		case "delete":
			cmdErr = withID(a.Delete)
		case "export":
			if len(args) != 1 {
				cmdErr = errors.New("usage: export <file.xlsx>")
				break
			}
			cmdErr = a.Export(ctx, args[0])
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}
