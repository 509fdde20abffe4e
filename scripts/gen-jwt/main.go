// Gen-jwt prints a bearer token for a user id using the configured secret.
// Run from project root: go run ./scripts/gen-jwt <user-id> [ttl]
package main

import (
	"fmt"
	"os"
	"time"

	"todo-api/internal/auth"
	"todo-api/internal/config"

	"github.com/google/uuid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen-jwt <user-id> [ttl, e.g. 24h]")
		os.Exit(2)
	}
	if _, err := uuid.Parse(os.Args[1]); err != nil {
		fmt.Fprintln(os.Stderr, "user id must be a UUID:", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ttl := tokens.TTL()
	if len(os.Args) > 2 {
		if ttl, err = time.ParseDuration(os.Args[2]); err != nil {
			fmt.Fprintln(os.Stderr, "invalid ttl:", err)
			os.Exit(2)
		}
	}
	signed, err := tokens.IssueWithTTL(os.Args[1], ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
