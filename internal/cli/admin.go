package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/cliffauth/internal/auth"
	"github.com/mrlokans/cliffauth/internal/config"
	"github.com/mrlokans/cliffauth/internal/database"
	auditrepo "github.com/mrlokans/cliffauth/internal/database/audit"
	"github.com/mrlokans/cliffauth/internal/database/users"
	"github.com/mrlokans/cliffauth/internal/entities"
)

// CreateAdminCommand registers a new account with the admin role
type CreateAdminCommand struct {
	Name         string
	Email        string
	Password     string
	DatabasePath string

	auth config.Auth
}

// NewCreateAdminCommand creates a new CreateAdminCommand using cfg for
// defaults and password policy
func NewCreateAdminCommand(cfg *config.Config) *CreateAdminCommand {
	return &CreateAdminCommand{DatabasePath: cfg.Database.Path, auth: cfg.Auth}
}

// ParseFlags parses command line flags
func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Name, "name", "", "Display name of the administrator")
	fs.StringVar(&cmd.Email, "email", "", "Email address used to log in")
	fs.StringVar(&cmd.Password, "password", "", "Initial password")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -name NAME -email EMAIL -password PASSWORD [-db PATH]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an administrator account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return errors.New("-email and -password are required")
	}
	if cmd.Name == "" {
		cmd.Name = cmd.Email
	}
	return nil
}

// Run executes the command
func (cmd *CreateAdminCommand) Run() error {
	store, events, closeDB, err := openCredentialStore(cmd.DatabasePath, cmd.auth)
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	user, err := store.CreateUser(ctx, cmd.Name, cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user, err = store.SetRole(ctx, user.Email, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	recordRoleChange(events, user)

	fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}

// PromoteCommand changes the role of an existing account
type PromoteCommand struct {
	Email        string
	Role         string
	DatabasePath string

	auth config.Auth
}

// NewPromoteCommand creates a new PromoteCommand
func NewPromoteCommand(cfg *config.Config) *PromoteCommand {
	return &PromoteCommand{DatabasePath: cfg.Database.Path, auth: cfg.Auth}
}

// ParseFlags parses command line flags
func (cmd *PromoteCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)

	fs.StringVar(&cmd.Email, "email", "", "Email address of the account")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleAdmin), "Role to assign (user or admin)")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.DatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s promote -email EMAIL [-role admin|user] [-db PATH]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Change the role of an existing account.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s promote -email ada@example.com\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s promote -email ada@example.com -role user\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Email == "" {
		fs.Usage()
		return errors.New("-email is required")
	}
	return nil
}

// Run executes the command
func (cmd *PromoteCommand) Run() error {
	store, events, closeDB, err := openCredentialStore(cmd.DatabasePath, cmd.auth)
	if err != nil {
		return err
	}
	defer closeDB()

	user, err := store.SetRole(context.Background(), cmd.Email, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("failed to change role: %w", err)
	}
	recordRoleChange(events, user)

	fmt.Printf("%s is now %s\n", user.Email, user.Role)
	return nil
}

func openCredentialStore(dbPath string, cfg config.Auth) (*auth.CredentialStore, *auditrepo.Repository, func(), error) {
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing database: %v\n", err)
		}
	}
	store := auth.NewCredentialStore(users.NewRepository(db.DB), auth.NewBcryptHasher(cfg.BcryptCost), cfg)
	return store, auditrepo.NewRepository(db.DB), closeDB, nil
}

func recordRoleChange(events *auditrepo.Repository, user *entities.User) {
	err := events.LogEvent(&entities.AuditEvent{
		UserID:    user.ID,
		Action:    entities.AuditActionRoleChanged,
		UserAgent: "cli",
		Status:    entities.AuditStatusSuccess,
		Detail:    "role set to " + string(user.Role),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record audit event: %v\n", err)
	}
}
