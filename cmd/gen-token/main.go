package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/config"
)

func main() {
	userID := flag.String("user", "550e8400-e29b-41d4-a716-446655440000", "User ID (UUID)")
	email := flag.String("email", "engineer@example.com", "Email address")
	role := flag.String("role", "ENGINEER", "Role (ENGINEER|ADMIN)")
	flag.Parse()

	cfg := config.Load()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryMinutes)

	token, err := jwtService.GenerateToken(*userID, *email, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating JWT token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ JWT Token generated successfully!\n\n")
	fmt.Printf("User ID:   %s\n", *userID)
	fmt.Printf("Email:     %s\n", *email)
	fmt.Printf("Role:      %s\n", *role)
	fmt.Printf("\nToken:\n%s\n", token)
	fmt.Printf("\n📋 Copy this for API requests:\n")
	fmt.Printf("Authorization: Bearer %s\n", token)
	fmt.Printf("\n💡 Example curl:\n")
	fmt.Printf("curl -X POST http://localhost:3000/visits/start-journey \\\n")
	fmt.Printf("  -H 'Authorization: Bearer %s' \\\n", token)
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -H 'X-Request-ID: 11111111-1111-1111-1111-111111111111' \\\n")
	fmt.Printf("  -d '{\n")
	fmt.Printf("    \"jobId\": \"JOB-1042\",\n")
	fmt.Printf("    \"latitude\": \"52.5200\",\n")
	fmt.Printf("    \"longitude\": \"13.4050\"\n")
	fmt.Printf("  }'\n\n")
}
