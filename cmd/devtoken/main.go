package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	httpMW "github.com/yungbote/careerkb-backend/internal/http/middleware"
	"github.com/yungbote/careerkb-backend/internal/platform/envutil"
)

// devtoken prints a bearer token signed with JWT_SECRET for local testing.
func main() {
	var person, email, name string
	var ttl time.Duration
	flag.StringVar(&person, "person", "", "person_id (random when empty)")
	flag.StringVar(&email, "email", "", "email claim")
	flag.StringVar(&name, "name", "", "name claim")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := envutil.String("JWT_SECRET", "")
	if secret == "" {
		fmt.Println("JWT_SECRET is not set")
		os.Exit(1)
	}
	id := uuid.New()
	if person != "" {
		parsed, err := uuid.Parse(person)
		if err != nil {
			fmt.Printf("invalid -person: %v\n", err)
			os.Exit(1)
		}
		id = parsed
	}
	token, err := httpMW.SignToken(secret, id, email, name, ttl)
	if err != nil {
		fmt.Printf("sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("person_id=%s\n%s\n", id, token)
}
