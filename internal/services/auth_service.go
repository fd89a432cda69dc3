package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/agentswap/backend/internal/models"
)

// AuthService exchanges agent client credentials for a signed bearer token.
// Each counterparty role ships with its own credential set; the relay only
// accepts requests from the peer agent that can present a valid token.
type AuthService struct {
	validator *ValidationHelper
	// client_id -> argon2 hash of the client secret
	credentials map[string]string
}

func NewAuthService() *AuthService {
	creds := make(map[string]string)

	for _, pair := range [][2]string{
		{viper.GetString("agent.client_id"), viper.GetString("agent.client_secret")},
		{viper.GetString("agent.peer_client_id"), viper.GetString("agent.peer_client_secret")},
	} {
		id, secret := pair[0], pair[1]
		if id == "" || secret == "" {
			continue
		}
		hashed, err := hashSecret(secret)
		if err != nil {
			log.Printf("[AUTH] Failed to hash client secret for %s: %v", id, err)
			continue
		}
		creds[id] = hashed
	}

	return &AuthService{
		validator:   NewValidationHelper(),
		credentials: creds,
	}
}

// Token handles POST /auth/token (client credentials grant).
func (as *AuthService) Token(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	stored, ok := as.credentials[req.ClientID]
	if !ok || !verifySecret(req.ClientSecret, stored) {
		log.Printf("[AUTH] Rejected token request for client %s", req.ClientID)
		SendErrorResponse(w, "Invalid client credentials", http.StatusUnauthorized, nil)
		return
	}

	expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	expiresAt := time.Now().Add(expiry)

	token, err := GenerateAgentToken(req.ClientID, expiresAt)
	if err != nil {
		log.Printf("[AUTH] Failed to sign token for client %s: %v", req.ClientID, err)
		SendErrorResponse(w, "Failed to issue token", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// GenerateAgentToken signs a bearer token identifying the calling agent.
func GenerateAgentToken(clientID string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"client_id": clientID,
		"iat":       time.Now().Unix(),
		"exp":       expiresAt.Unix(),
	})
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashSecret(secret string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(secret), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))

	return fmt.Sprintf("%s$%s",
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

func verifySecret(secret, encoded string) bool {
	parts := strings.SplitN(encoded, "$", 2)
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}
