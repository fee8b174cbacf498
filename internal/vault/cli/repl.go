package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. *App satisfies it.
type execIface interface {
	isUnlocked() bool
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Import(ctx context.Context, paths []string) error
	Today(ctx context.Context) error
	View(ctx context.Context, id string) error
	Open(ctx context.Context, id string) error
	Delete(ctx context.Context, id string, confirmed bool) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit" or "quit". The prompt shows statusFn.
//
//	Locked:
//	  help, unlock, exit | quit
//
//	Unlocked:
//	  help, today, view <id>, open <id>, delete <id>,
//	  import <path>..., status, lock, exit | quit
//
// Errors from handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("dv (%s)> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn(Error.Sprint("Error:"), err)
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isUnlocked() {
			printlnFn("Available commands: today, view <id>, open <id>, delete <id>, import <path>..., status, lock, exit")
		} else {
			printlnFn("Available commands: unlock, exit")
		}
		return nil
	case "unlock":
		return a.Unlock(ctx)
	case "lock":
		return a.Lock(ctx)
	}

	if !a.isUnlocked() {
		printlnFn("Vault is locked, type 'unlock' first")
		return nil
	}

	switch cmd {
	case "today", "t":
		return a.Today(ctx)
	case "status":
		return a.Status(ctx)
	case "import":
		if len(args) == 0 {
			printlnFn("Usage: import <path>...")
			return nil
		}
		return a.Import(ctx, args)
	case "view", "open", "delete":
		if len(args) != 1 {
			printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
			return nil
		}
		switch cmd {
		case "view":
			return a.View(ctx, args[0])
		case "open":
			return a.Open(ctx, args[0])
		default:
			return a.Delete(ctx, args[0], false)
		}
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}
