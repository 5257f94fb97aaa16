package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/iudanet/gopherblog/internal/client/auth"
	pkgapi "github.com/iudanet/gopherblog/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	email, err := c.io.ReadInput("Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}
	password, err := c.readNewPassword()
	if err != nil {
		return err
	}

	user, err := c.session.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Println("Run 'gopherblog login' to start a session.")
	return nil
}

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		var err error
		if username, err = c.io.ReadInput("Username: "); err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	session, err := c.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Role: %s\n", session.Role)
	c.io.Printf("Token expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if err := c.session.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("Your local session has been deleted.")
	return nil
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	session, err := c.session.Status(ctx)
	if errors.Is(err, auth.ErrNotLoggedIn) {
		c.io.Println("Status: Not authenticated")
		c.io.Println("Run 'gopherblog login' to authenticate.")
		return nil
	}
	if err != nil {
		return err
	}

	expiresAt := time.Unix(session.ExpiresAt, 0)

	if c.session.Expired(session) {
		c.io.Println("Status: Expired")
	} else {
		c.io.Println("Status: Authenticated")
	}
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Role: %s\n", session.Role)
	c.io.Printf("Server: %s\n", session.ServerURL)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))

	if c.session.Expired(session) {
		c.io.Println("⚠️  Token has expired. Please login again.")
	}
	return nil
}

func (c *Cli) runWhoAmI(ctx context.Context) error {
	user, err := c.session.WhoAmI(ctx)
	if err != nil {
		return err
	}

	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Email: %s\n", user.Email)
	return nil
}

func (c *Cli) runVerify(ctx context.Context) error {
	resp, err := c.session.Verify(ctx)
	if err != nil {
		return err
	}

	if !resp.Valid {
		return auth.ErrSessionExpired
	}
	c.io.Printf("✓ Token is valid for %s\n", resp.User)
	return nil
}

func (c *Cli) runEditProfile(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("edit-profile", pflag.ContinueOnError)
	fs.SetOutput(c.io)
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email")
	changePassword := fs.Bool("password", false, "prompt for a new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req pkgapi.EditUserRequest
	if fs.Changed("username") {
		req.Username = username
	}
	if fs.Changed("email") {
		req.Email = email
	}
	if *changePassword {
		password, err := c.readNewPassword()
		if err != nil {
			return err
		}
		req.Password = &password
	}

	user, err := c.session.EditProfile(ctx, req)
	if err != nil {
		return err
	}

	c.io.Println("✓ Profile updated. A new session token has been saved.")
	c.io.Printf("Username: %s\n", user.Username)
	c.io.Printf("Email: %s\n", user.Email)
	return nil
}

func (c *Cli) readNewPassword() (string, error) {
	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}
