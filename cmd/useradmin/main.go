package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"impacthub/internal/adapter/repo"
	"impacthub/internal/domain"
	"impacthub/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		userFlag   string
		revokeFlag bool
	)
	flag.StringVar(&userFlag, "user", "", "username or email of the account to update")
	flag.BoolVar(&revokeFlag, "revoke", false, "remove the admin flag instead of granting it")
	flag.Parse()

	identity := strings.TrimSpace(userFlag)
	if identity == "" {
		exitWithError(errors.New("-user is required"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "useradmin").Logger()
	users := repo.NewUserRepository(infra.NewSQLRunner(pool, logger))

	user, err := users.SetAdmin(ctx, identity, !revokeFlag)
	if errors.Is(err, domain.ErrNotFound) {
		exitWithError(fmt.Errorf("no user matches %q", identity))
	}
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user: %w", err))
	}

	fmt.Printf("User %s (%s, %s) is_admin=%v\n", user.Username, user.Email, user.ID, user.IsAdmin)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
