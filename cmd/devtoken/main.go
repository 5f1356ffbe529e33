// Command devtoken prints a bearer token for local testing:
//
//	devtoken <user_id> <CLIENT|ADMIN>
package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"finapp-backend/internal/adapter/auth"
	"finapp-backend/internal/config"
	"finapp-backend/internal/domain/user"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: devtoken <user_id> <CLIENT|ADMIN>")
		os.Exit(2)
	}
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	m := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL(), nil)
	token, sess, err := m.Issue(os.Args[1], user.Role(strings.ToUpper(os.Args[2])))
	if err != nil {
		log.WithError(err).Fatal("issue token")
	}
	log.WithFields(log.Fields{"user_id": sess.UserID, "role": sess.Role, "expires_at": sess.ExpiresAt}).Info("token issued")
	fmt.Println(token)
}
