package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

type claims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	TenantID   string `json:"tenant_id,omitempty"`
	TenantSlug string `json:"tenant_slug,omitempty"`
	TenantPlan string `json:"tenant_plan,omitempty"`
	jwt.RegisteredClaims
}

// Dev helper for minting tokens against a local server without going
// through /auth/login.
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Define command line flags
	userID := flag.String("user", "", "User ID for the token subject")
	email := flag.String("email", "dev@example.com", "Email claim")
	role := flag.String("role", "tenant_admin", "Role claim")
	tenantID := flag.String("tenant", "", "Tenant ID for the token")
	tenantSlug := flag.String("slug", "", "Tenant slug for the token")
	tenantPlan := flag.String("plan", "trial", "Tenant plan for the token")
	expirationHours := flag.Int("exp", 24, "Token expiration in hours")
	flag.Parse()

	if *userID == "" {
		log.Fatal("User ID is required")
	}

	now := time.Now()
	c := &claims{
		Email:      *email,
		Role:       *role,
		TenantID:   *tenantID,
		TenantSlug: *tenantSlug,
		TenantPlan: *tenantPlan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(*expirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	// Create token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)

	// Get JWT secret from environment
	jwtSecret := []byte(getEnvOrDefault("JWT_SECRET_KEY", "your-default-secret-key"))

	// Sign the token
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		log.Fatalf("Error signing token: %v", err)
	}

	fmt.Printf("Generated JWT Token:\n%s\n", tokenString)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
