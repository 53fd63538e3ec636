// Package main prints an operator bearer token signed with JWT_SECRET.
//
//	go run ./cmd/token -operator op-1 -name "Front Desk" -roles admin,clerk
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"autobill/internal/config"
	"autobill/internal/domain/auth"
)

func main() {
	operatorID := flag.String("operator", "admin", "operator id (sub claim)")
	name := flag.String("name", "", "operator display name")
	roles := flag.String("roles", "admin", "comma separated roles")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to JWT_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.JWT.Enabled() {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWT.Secret)
	jwtConfig.Issuer = cfg.JWT.Issuer
	jwtConfig.AccessTokenTTL = cfg.JWT.TTL
	if *ttl > 0 {
		jwtConfig.AccessTokenTTL = *ttl
	}

	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(*operatorID, *name, splitRoles(*roles))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func splitRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(s, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
