package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"giftchain.backend/internal/domain/entities"
	"giftchain.backend/pkg/jwt"
)

// Mints a bearer token for a wallet so the authenticated gift routes can be exercised
// against a local server.
func main() {
	_ = godotenv.Load()

	wallet := flag.String("wallet", "", "wallet address the token is issued for")
	chain := flag.String("chain", "sui", "chain the wallet belongs to: sui or solana")
	expiry := flag.Duration("expiry", time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret (defaults to JWT_SECRET)")
	flag.Parse()

	token, err := buildToken(*secret, *wallet, *chain, *expiry)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Printf("Authorization: Bearer %s\n", token)
}

func validateInputs(secret, wallet, chain string, expiry time.Duration) (entities.ChainType, error) {
	if secret == "" {
		return "", errors.New("secret is required (flag -secret or JWT_SECRET)")
	}
	if wallet == "" {
		return "", errors.New("wallet is required")
	}
	chainType, ok := entities.ParseChainType(chain)
	if !ok {
		return "", fmt.Errorf("invalid chain: %s (allowed: sui, solana)", chain)
	}
	if expiry <= 0 {
		return "", fmt.Errorf("invalid expiry: %s (must be positive)", expiry)
	}
	return chainType, nil
}

func buildToken(secret, wallet, chain string, expiry time.Duration) (string, error) {
	chainType, err := validateInputs(secret, wallet, chain, expiry)
	if err != nil {
		return "", err
	}
	address := entities.NormalizeAddress(chainType, wallet)
	return jwt.NewJWTService(secret, expiry).GenerateToken(address, chainType.String())
}
