package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Generate(ctx context.Context) error
	Validate(ctx context.Context) error
	List(ctx context.Context) error
	Revoke(ctx context.Context) error
	Cleanup(ctx context.Context) error
	WriteCard(ctx context.Context) error
	ReaderStatus(ctx context.Context) error
	Certificates(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the admin console.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Commands before login: help, login, exit. After login: generate, validate,
// list, revoke, cleanup, write, status, certs, logout, exit.
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gym> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: (g)enerate, (v)alidate, (l)ist, revoke, cleanup, write, status, certs, logout, exit")
			} else {
				printlnFn("Available commands: login, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "g", "generate":
			_ = a.Generate(ctx)

		case "v", "validate":
			_ = a.Validate(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "revoke":
			_ = a.Revoke(ctx)

		case "cleanup":
			_ = a.Cleanup(ctx)

		case "write":
			_ = a.WriteCard(ctx)

		case "status":
			_ = a.ReaderStatus(ctx)

		case "certs":
			_ = a.Certificates(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
