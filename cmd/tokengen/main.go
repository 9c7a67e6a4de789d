package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	"github.com/Wang-tianhao/jsonwebtoken-go/jwtcodec"
)

// settings are read from TOKENGEN_* environment variables; flags override them
type settings struct {
	Secret string        `env:"SECRET"`
	TTL    time.Duration `env:"TTL" envDefault:"1h"`
	Issuer string        `env:"ISSUER"`
	Debug  bool          `env:"DEBUG"`
}

func main() {
	cfg, err := env.ParseAsWithOptions[settings](env.Options{Prefix: "TOKENGEN_"})
	if err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	var (
		secret  = flag.String("secret", cfg.Secret, "Secret key (or TOKENGEN_SECRET)")
		subject = flag.String("sub", "user123", "Subject (user ID)")
		email   = flag.String("email", "", "Email address")
		role    = flag.String("role", "", "User role")
		issuer  = flag.String("iss", cfg.Issuer, "Issuer (or TOKENGEN_ISSUER)")
		ttl     = flag.Duration("ttl", cfg.TTL, "Token validity (or TOKENGEN_TTL)")
		verify  = flag.String("verify", "", "Decode and verify this token instead of issuing one")
	)

	flag.Parse()

	if *secret == "" {
		log.Fatal("Secret is required (-secret or TOKENGEN_SECRET)")
	}

	opts := []jwtcodec.Option{}
	if cfg.Debug {
		opts = append(opts, jwtcodec.WithLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil))))
	}
	codec, err := jwtcodec.New(opts...)
	if err != nil {
		log.Fatalf("Failed to configure codec: %v", err)
	}

	if *verify != "" {
		os.Exit(runVerify(codec, *verify, []byte(*secret)))
	}

	now := time.Now()
	claims := jwtcodec.NewMap().
		Set("sub", *subject).
		Set("jti", uuid.NewString()).
		Set("iat", now.Unix()).
		Set("nbf", now.Unix()).
		Set("exp", now.Add(*ttl).Unix())
	if *issuer != "" {
		claims.Set("iss", *issuer)
	}
	if *email != "" {
		claims.Set("email", *email)
	}
	if *role != "" {
		claims.Set("role", *role)
	}

	token, err := codec.Encode(claims, []byte(*secret), nil)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Println("\n=== Token Generated ===")
	fmt.Printf("\nToken: %s\n\n", token)
	fmt.Println("Claims:")
	claims.Range(func(key string, value any) bool {
		fmt.Printf("  %-6s %v\n", key+":", value)
		return true
	})
	fmt.Printf("\nExpires: %s\n\n", now.Add(*ttl).Format(time.RFC3339))
}

// runVerify prints the decode result as JSON and returns the exit status
func runVerify(codec *jwtcodec.Codec, token string, secret []byte) int {
	result, err := codec.Decode(token, secret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode token: %v\n", err)
		return 2
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render result: %v\n", err)
		return 2
	}
	fmt.Println(string(out))

	if !result.Valid {
		return 1
	}
	return 0
}
