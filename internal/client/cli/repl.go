package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/vehiclefeed/internal/client/client"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Brands(ctx context.Context, args []string) error
	Models(ctx context.Context, args []string) error
	Years(ctx context.Context, args []string) error
	Detail(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
	Listings(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Photo(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: login, exit"
	helpLoggedIn  = `Available commands:
  brands <category>                         list brands (carros|motos)
  models <category> <brand>                 list models of a brand
  years <category> <brand> <model>          list year/trim codes
  detail <category> <brand> <model> <code>  show a trim
  import start <category>|status|stop|seed  drive the bulk importer
  stats                                     mirror statistics
  listings [active]                         list listings
  toggle <id> | delete <id>                 change a listing
  export json|xml                           save the public feed
  photo <file>                              upload a photo, print its URL
  logout, exit`
)

// runREPL reads commands line by line from reader and dispatches them to a
// until EOF, "exit"/"quit" or ctx is done. Command errors are printed and
// the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("vf %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)
		case "brands":
			cmdErr = a.Brands(ctx, args)
		case "models":
			cmdErr = a.Models(ctx, args)
		case "years":
			cmdErr = a.Years(ctx, args)
		case "detail":
			cmdErr = a.Detail(ctx, args)
		case "import":
			cmdErr = a.Import(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "l", "listings":
			cmdErr = a.Listings(ctx, args)
		case "toggle":
			cmdErr = a.Toggle(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "export":
			cmdErr = a.Export(ctx, args)
		case "photo":
			cmdErr = a.Photo(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describe(cmdErr))
		}
	}
}

func describe(err error) string {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return "Usage: " + string(usage)
	case errors.Is(err, client.ErrUnauthorized):
		return "error: not logged in or session expired, use 'login'"
	case errors.Is(err, client.ErrUnavailable):
		return "error: server unavailable"
	default:
		return "error: " + err.Error()
	}
}

// usageError is returned by commands called with the wrong arguments.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
