package main

import (
	"chat-gate/auth"
	"chat-gate/domain"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

const (
	exitOK     = 0
	exitConfig = 2
)

type Config struct {
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=720h"`
	AdminIdentity     string        `env:"ADMIN_IDENTITY,default=c2009546b62e8bf62a4b1387664842c54821f56214e6e6897021091f3f5a053f"`
}

// token mints a JWT for an explicit identity, typically the administrator whose
// identity is configured rather than issued.
func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	identityHex := flag.String("identity", config.AdminIdentity, "hex identity the token is minted for")
	subject := flag.String("subject", "admin", "token subject")
	flag.Parse()

	identity, err := domain.ParseIdentity(*identityHex)
	if err != nil {
		return exitConfig, err
	}
	token, err := auth.NewTokenManager([]byte(config.AuthSecret), config.AuthTokenDuration).
		GenerateToken(identity, *subject)
	if err != nil {
		return exitConfig, err
	}
	fmt.Println(token)
	return exitOK, nil
}
