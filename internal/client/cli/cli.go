// Package cli команды CLI клиента блога.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/iudanet/gopherblog/internal/client/iocli"
	"github.com/iudanet/gopherblog/internal/client/storage"
	pkgapi "github.com/iudanet/gopherblog/pkg/api"
)

// ErrUnknownCommand команда не поддерживается
var ErrUnknownCommand = errors.New("unknown command")

// Session операции сессии, реализуется auth.Service
type Session interface {
	Register(ctx context.Context, username, email, password string) (*pkgapi.UserView, error)
	Login(ctx context.Context, username, password string) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*storage.AuthData, error)
	Expired(session *storage.AuthData) bool
	WhoAmI(ctx context.Context) (*pkgapi.UserView, error)
	Verify(ctx context.Context) (*pkgapi.VerifyResponse, error)
	EditProfile(ctx context.Context, req pkgapi.EditUserRequest) (*pkgapi.UserView, error)
}

// Cli выполняет команды клиента
type Cli struct {
	io      iocli.IO
	session Session
}

// New создает Cli
func New(io iocli.IO, session Session) *Cli {
	return &Cli{
		io:      io,
		session: session,
	}
}

// Run выполняет команду с аргументами
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx, args)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoAmI(ctx)
	case "verify":
		return c.runVerify(ctx)
	case "edit-profile":
		return c.runEditProfile(ctx, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// PrintUsage выводит справку
func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `Gopherblog Client

Usage:
  gopherblog [OPTIONS] COMMAND [ARGS]

Options:
  --version        Show version information
  --server URL     Server API URL (default: http://localhost:5073/api)
  --db PATH        Path to local session database (default: gopherblog-client.db)
  --verbose        Enable debug logging

Commands:
  register         Create a new account
  login [USER]     Login and save the session token
  logout           Forget the local session token
  status           Show the local session
  whoami           Show the profile of the current user
  verify           Check the session token with the server
  edit-profile     Change username, email or password
                   (--username NAME, --email EMAIL, --password to prompt)

Examples:
  gopherblog login alice
  gopherblog edit-profile --email alice@example.com
  gopherblog --server https://blog.example.com/api status
`)
}
