// mockidentity is a development stand-in for the external identity provider.
// It serves a JWKS document and issues short-lived RS256 session tokens for a
// few seeded credentials. Subjects map to the dev fixtures expected by a
// memory-backed classhub instance.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classhub/internal/domain"
	"classhub/internal/platform/server"
)

const tokenTTL = 15 * time.Minute

type credential struct {
	password string
	subject  string
}

func main() {
	addr := envOr("IDENTITY_ADDR", ":8081")
	issuer := envOr("IDENTITY_ISSUER", "classhub-identity")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		slog.Error("generating RSA key", "error", err)
		os.Exit(1)
	}
	kid := fmt.Sprintf("mock-key-%d", time.Now().Unix())

	// Seeded credentials; subjects line up with memory-store dev fixtures.
	users := map[string]credential{
		"admin":   {password: "admin", subject: "sub-admin-1"},
		"teacher": {password: "teacher", subject: "sub-teacher-1"},
		"student": {password: "student", subject: "sub-student-1"},
		"parent":  {password: "parent", subject: "sub-parent-1"},
	}

	slog.Info("mock identity service starting", "addr", addr, "kid", kid)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		pub := &priv.PublicKey
		jwks := map[string]any{
			"keys": []map[string]any{
				{
					"kty": "RSA",
					"alg": "RS256",
					"use": "sig",
					"kid": kid,
					"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	})

	mux.HandleFunc("POST /auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}

		cred, ok := users[req.Username]
		if !ok || cred.password != req.Password {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}

		now := time.Now()
		claims := jwt.MapClaims{
			"sub": cred.subject,
			"iss": issuer,
			"iat": now.Unix(),
			"exp": now.Add(tokenTTL).Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		token.Header["kid"] = kid

		signed, err := token.SignedString(priv)
		if err != nil {
			slog.Error("signing token", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "token signing failed")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": signed,
			"token_type":   "Bearer",
			"expires_in":   int(tokenTTL.Seconds()),
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(addr, mux)
	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Error:   errCode,
		Message: msg,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
