package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/models"
)

// ProofService validates externally issued payment proofs: HS256-signed
// tokens binding a payer identity to a specific swap request id and amount.
// Verification is stateless evidence checking only; at-most-once settlement
// per request id is enforced by the ledger, not here, since the same proof
// validates every time it is presented.
type ProofService struct {
	secret        []byte
	verboseDecode bool
}

func NewProofService() *ProofService {
	return &ProofService{
		secret:        []byte(viper.GetString("proof.secret")),
		verboseDecode: viper.GetBool("proof.verbose_decode"),
	}
}

// Verify validates the proof token and extracts the bound request id and
// payer claims. Any failure surfaces as INVALID_PROOF; there is no retry.
func (ps *ProofService) Verify(proof string) (*models.ProofClaims, error) {
	token, err := jwt.Parse(proof, func(token *jwt.Token) (interface{}, error) {
		return ps.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil || !token.Valid {
		return nil, models.NewSwapError(models.ErrInvalidProof,
			fmt.Sprintf("payment proof verification failed: %v", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewSwapError(models.ErrInvalidProof,
			"payment proof carries no claims")
	}

	requestID, _ := claims["request_id"].(string)
	if requestID == "" {
		return nil, models.NewSwapError(models.ErrInvalidProof,
			"payment proof is not bound to a swap request")
	}

	payer, _ := claims["payer"].(string)
	amount, _ := claims["amount"].(string)

	if ps.verboseDecode {
		decoded, _ := json.Marshal(claims)
		log.Printf("[PROOF] Decoded proof claims: %s", decoded)
	}

	return &models.ProofClaims{
		RequestID: requestID,
		Payer:     payer,
		Amount:    amount,
	}, nil
}

// Issue signs a payment proof bound to a swap request. In production proofs
// come from the external payment system; this stands in for it so the demo
// and the CLI tutorial work end to end.
func (ps *ProofService) Issue(requestID, payer, amount string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"request_id": requestID,
		"payer":      payer,
		"amount":     amount,
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(ttl).Unix(),
	})

	return token.SignedString(ps.secret)
}
