package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mansoorceksport/fitcoach/internal/service"
)

// devtoken prints an HS256 access token for running the API with AUTH_MODE=jwt.
func main() {
	_ = godotenv.Load()

	userID := flag.String("user", "dev-user", "User id to embed in the token")
	email := flag.String("email", "", "Optional email claim")
	expiry := flag.Duration("expiry", 24*time.Hour, "Token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to JWT_SECRET)")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set; pass -secret or export it")
		os.Exit(1)
	}

	token, err := service.NewTokenService(*secret, *expiry).Issue(*userID, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
