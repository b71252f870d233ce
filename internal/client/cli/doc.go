// Package cli provides the interactive inspection shell.
//
// It wires configuration, the local record store and the inspection service
// into a read-eval-print loop. Records are created and edited through a
// sequence of field prompts; every prompt shows the current value, an empty
// answer keeps it and "-" clears it.
//
// Commands:
//   - new, edit <id>: fill in and save an inspection
//   - list | l: saved inspections, newest first
//   - show <id>: the stored document as JSON
//   - report <id>: the printable inspection report
//   - delete <id>
//   - export <file.xlsx>: all inspections as a spreadsheet
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
