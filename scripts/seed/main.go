// Seed registers a demo account and adds todos to it through the services.
// Run from project root: go run ./scripts/seed -n 1000
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"todo-api/internal/apperror"
	"todo-api/internal/auth"
	"todo-api/internal/config"
	"todo-api/internal/database"
	"todo-api/internal/repository"
	"todo-api/internal/service"
)

func main() {
	total := flag.Int("n", 100, "number of todos to create")
	email := flag.String("email", "demo@example.com", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.Storage != config.StoragePostgres {
		fmt.Fprintln(os.Stderr, "seed needs STORAGE=postgres; in-memory data would vanish on exit")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB connection failed:", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		fmt.Fprintln(os.Stderr, "Schema failed:", err)
		os.Exit(1)
	}

	accounts := service.NewAccountService(repository.NewUsers(db), auth.NewPasswordHasher(cfg.BcryptCost))
	todos := service.NewTodoService(repository.NewTodos(db))

	user, err := accounts.Register(ctx, *email, "Demo", *password)
	if errors.Is(err, apperror.ErrDuplicateEmail) {
		user, err = accounts.Login(ctx, *email, *password)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Demo account failed:", err)
		os.Exit(1)
	}

	start := time.Now()
	for i := 1; i <= *total; i++ {
		description := fmt.Sprintf("Description for todo %d", i)
		if _, err := todos.Create(ctx, user.ID, fmt.Sprintf("Todo %d", i), &description); err != nil {
			fmt.Fprintln(os.Stderr, "\nInsert failed:", err)
			os.Exit(1)
		}
		if i%100 == 0 || i == *total {
			fmt.Printf("\rInserted %d / %d", i, *total)
		}
	}
	fmt.Printf("\nDone: %d todos for %s (%s) in %v\n", *total, user.Email, user.ID, time.Since(start))
}
