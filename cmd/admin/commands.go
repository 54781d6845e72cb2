package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"jerrygfit/api/internal/authpw"
	"jerrygfit/api/internal/domain"
	"jerrygfit/api/internal/search"
	"jerrygfit/api/internal/store"
)

func newMigrateCmd(e *env) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.ApplyMigrations(cmd.Context(), db, store.MigrationSource(e.cfg.MigrationsDir)); err != nil {
				return err
			}
			e.log.Info().Msg("migrations applied")
			return nil
		},
	}
	migrate.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Revert the most recently applied migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			version, err := store.RollbackLast(cmd.Context(), db, store.MigrationSource(e.cfg.MigrationsDir))
			if err != nil {
				return err
			}
			if version == "" {
				e.log.Info().Msg("nothing to roll back")
				return nil
			}
			e.log.Info().Str("version", version).Msg("migration rolled back")
			return nil
		},
	})
	return migrate
}

func newSeedCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users and content into an empty database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			dataStore := store.NewPostgresStore(db)
			created, err := seedDemo(cmd.Context(), dataStore, authpw.NewService(dataStore), password)
			if err != nil {
				return err
			}
			if created == 0 {
				e.log.Info().Msg("database already has users; seed skipped")
				return nil
			}
			e.log.Info().Int("users", created).Msg("demo data seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "Demo1234!", "password given to every demo account")
	return cmd
}

type adminInput struct {
	Email    string
	Username string
	FullName string
	Password string
}

func newCreateAdminCmd(e *env) *cobra.Command {
	var input adminInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing account with that email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input.Password == "" {
				password, err := readPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				input.Password = password
			}
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			dataStore := store.NewPostgresStore(db)
			user, err := createAdmin(cmd.Context(), dataStore, authpw.NewService(dataStore), input)
			if err != nil {
				return err
			}
			e.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("admin ready")
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&input.Username, "username", "", "account username (required)")
	cmd.Flags().StringVar(&input.FullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&input.Password, "password", "", "password; prompted when omitted")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newResetPasswordCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "reset-password <username-or-email>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd, "New password: "); err != nil {
					return err
				}
			}
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			dataStore := store.NewPostgresStore(db)
			user, err := dataStore.GetUserByLogin(cmd.Context(), args[0])
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("no account matches %q", args[0])
			}
			if err != nil {
				return err
			}
			if err := authpw.NewService(dataStore).SetPassword(cmd.Context(), user.ID, password); err != nil {
				return err
			}
			e.log.Info().Int64("user_id", user.ID).Msg("password reset")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "new password; prompted when omitted")
	return cmd
}

func newReindexCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the Meilisearch index from Postgres",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(e.cfg.MeiliURL) == "" {
				return errors.New("MEILI_URL is not set")
			}
			db, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			meili := search.NewMeili(e.cfg.MeiliURL, e.cfg.MeiliMasterKey, e.log)
			count, err := search.NewService(meili, search.NewPgFTS(db), e.log).ReindexAllFromPG(cmd.Context())
			if err != nil {
				return err
			}
			e.log.Info().Int("records", count).Msg("search index rebuilt")
			return nil
		},
	}
}

// adminStore is the slice of the store create-admin needs.
type adminStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	UpdateUser(ctx context.Context, user store.User) (store.User, error)
}

type passwordSetter interface {
	Register(ctx context.Context, req authpw.RegisterRequest) (store.User, error)
	SetPassword(ctx context.Context, userID int64, password string) error
}

func createAdmin(ctx context.Context, users adminStore, passwords passwordSetter, input adminInput) (store.User, error) {
	if len(input.Password) < authpw.MinPasswordLength {
		return store.User{}, authpw.ErrWeakPassword
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := users.GetUserByEmail(ctx, email)
	existing := err == nil
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user, err = passwords.Register(ctx, authpw.RegisterRequest{
			Email:    email,
			Username: input.Username,
			Password: input.Password,
			FullName: input.FullName,
		})
		if err != nil {
			return store.User{}, err
		}
	case err != nil:
		return store.User{}, err
	}

	user.Role = domain.RoleAdmin
	user.IsSuperuser = true
	user.IsActive = true
	if input.FullName != "" {
		user.FullName = input.FullName
	}
	updated, err := users.UpdateUser(ctx, user)
	if err != nil {
		return store.User{}, err
	}
	// UpdateUser rewrites the stored hash, so the new password goes in last.
	if existing {
		if err := passwords.SetPassword(ctx, updated.ID, input.Password); err != nil {
			return store.User{}, err
		}
	}
	return updated, nil
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so the command also works with piped input.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		raw, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
