// Command useradd creates a cloudstorage account directly in the database.
//
// It reads the server configuration (-c, -d and friends) and takes the
// username with -n; the password is prompted for without echo.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/dmitrijs2005/cloudstorage/internal/flagx"
	"github.com/dmitrijs2005/cloudstorage/internal/logging"
	"github.com/dmitrijs2005/cloudstorage/internal/server/auth"
	"github.com/dmitrijs2005/cloudstorage/internal/server/config"
	"github.com/dmitrijs2005/cloudstorage/internal/server/models"
	"github.com/dmitrijs2005/cloudstorage/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cloudstorage/internal/server/services"
	"golang.org/x/term"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

type registrar interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
}

func main() {
	os.Exit(realMain(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// realMain wires the command and returns the process exit code, so deferred
// cleanup runs before the process exits.
func realMain(ctx context.Context, args []string, out, errOut io.Writer) int {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(errOut, nil)))

	cfg, err := config.LoadConfig(args)
	if err != nil {
		logger.Error(ctx, "config error", "error", err)
		return 1
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "db open error", "error", err)
		return 1
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		logger.Error(ctx, "migrations error", "error", err)
		return 1
	}

	us := services.NewUserService(db, rm, auth.NewBcryptHasher(), nil, nil, logger)
	if err := run(ctx, args, out, us); err != nil {
		logger.Error(ctx, "useradd failed", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, args []string, out io.Writer, users registrar) error {
	var userName string
	fs := flag.NewFlagSet("useradd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&userName, "n", "", "username")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-n"})); err != nil {
		return err
	}

	userName = strings.TrimSpace(userName)
	if userName == "" {
		return errors.New("username is required (-n)")
	}

	fmt.Fprint(out, "Enter password: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(password)

	u, err := users.Register(ctx, userName, string(password))
	if errors.Is(err, common.ErrorAlreadyExists) {
		return fmt.Errorf("user %q already exists", userName)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created user %s (%s)\n", u.UserName, u.ID)
	return nil
}
