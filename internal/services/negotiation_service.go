package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/agentswap/backend/internal/models"
)

var (
	requestIDPattern  = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	proofTokenPattern = regexp.MustCompile(`[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)
)

const helpText = `Supported instructions:
  swap <amount> <PAIR>   quote and create a swap request (e.g. "swap 25 USD/JPY")
  buy <amount> <PAIR>    negotiate a full swap against the peer agent
  pay <requestId>        pay a pending request and receive a payment proof
  settle <proof>         settle a swap request with a payment proof
  status <requestId>     show the current state of a swap request
  help                   show this message`

// NegotiationService is the scripted strategy behind the relay. It exposes
// exactly two ledger operations to a counterparty (create swap, settle swap)
// plus the payment and status conveniences the demo script needs, and it can
// drive a full negotiation against the peer agent's /chat endpoint within a
// fixed round budget.
type NegotiationService struct {
	ledger     *LedgerService
	settlement *SettlementService
	proofs     *ProofService
	role       string
	peerURL    string
	maxRounds  int
	client     *http.Client
}

func NewNegotiationService(ledger *LedgerService, settlement *SettlementService, proofs *ProofService) *NegotiationService {
	return &NegotiationService{
		ledger:     ledger,
		settlement: settlement,
		proofs:     proofs,
		role:       viper.GetString("agent.role"),
		peerURL:    viper.GetString("agent.peer_url"),
		maxRounds:  viper.GetInt("negotiation.max_rounds"),
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

// HandleInstruction interprets one free-text instruction from a counterparty
// and replies with a result string. Ledger and settlement errors pass
// through typed so the relay can preserve their kind.
func (ns *NegotiationService) HandleInstruction(ctx context.Context, instruction string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(instruction))
	if len(fields) == 0 {
		return helpText, nil
	}

	switch strings.ToLower(fields[0]) {
	case "swap":
		if len(fields) != 3 {
			return "", models.NewSwapError(models.ErrInvalidAmount,
				`usage: swap <amount> <PAIR>, e.g. "swap 25 USD/JPY"`)
		}
		amount, err := decimal.NewFromString(fields[1])
		if err != nil {
			return "", models.NewSwapError(models.ErrInvalidAmount,
				fmt.Sprintf("%q is not a valid swap amount", fields[1]))
		}
		req, err := ns.ledger.CreateRequest(ctx, strings.ToUpper(fields[2]), amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("created swap request %s: %s %s for %s at rate %s",
			req.ID, req.SourceAmount, req.Pair, req.TargetAmount, req.Rate), nil

	case "buy":
		if len(fields) != 3 {
			return "", models.NewSwapError(models.ErrInvalidAmount,
				`usage: buy <amount> <PAIR>, e.g. "buy 25 USD/JPY"`)
		}
		amount, err := decimal.NewFromString(fields[1])
		if err != nil {
			return "", models.NewSwapError(models.ErrInvalidAmount,
				fmt.Sprintf("%q is not a valid swap amount", fields[1]))
		}
		return ns.NegotiateSwap(ctx, amount, strings.ToUpper(fields[2]))

	case "pay":
		if len(fields) != 2 {
			return "", models.NewSwapError(models.ErrUnknownRequest, "usage: pay <requestId>")
		}
		req, err := ns.ledger.Get(ctx, fields[1])
		if err != nil {
			return "", err
		}
		proof, err := ns.proofs.Issue(req.ID, ns.role, req.SourceAmount.String(), time.Hour)
		if err != nil {
			return "", fmt.Errorf("failed to issue payment proof: %w", err)
		}
		return fmt.Sprintf("payment accepted for request %s, proof: %s", req.ID, proof), nil

	case "settle":
		if len(fields) != 2 {
			return "", models.NewSwapError(models.ErrInvalidProof, "usage: settle <proof>")
		}
		receipt, err := ns.settlement.Execute(ctx, fields[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("settled swap request %s: %s %s at rate %s, transfer %s",
			receipt.RequestID, receipt.SourceAmount, receipt.Pair, receipt.Rate, receipt.TransferRef), nil

	case "status":
		if len(fields) != 2 {
			return "", models.NewSwapError(models.ErrUnknownRequest, "usage: status <requestId>")
		}
		req, err := ns.ledger.Get(ctx, fields[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("swap request %s is %s: %s %s for %s at rate %s",
			req.ID, req.Status, req.SourceAmount, req.Pair, req.TargetAmount, req.Rate), nil

	default:
		return helpText, nil
	}
}

// NegotiateSwap runs the scripted buyer side of a swap against the peer
// agent: request a quote, pay it, settle it. Each message to the peer
// consumes one negotiation round; the conversation fails deterministically
// once the round budget is spent.
func (ns *NegotiationService) NegotiateSwap(ctx context.Context, amount decimal.Decimal, pair string) (string, error) {
	var (
		requestID string
		proof     string
	)

	for round := 1; round <= ns.maxRounds; round++ {
		var instruction string
		switch {
		case requestID == "":
			instruction = fmt.Sprintf("swap %s %s", amount, pair)
		case proof == "":
			instruction = fmt.Sprintf("pay %s", requestID)
		default:
			instruction = fmt.Sprintf("settle %s", proof)
		}

		reply, err := ns.sendToPeer(ctx, instruction)
		if err != nil {
			return "", fmt.Errorf("negotiation round %d failed: %w", round, err)
		}
		log.Printf("[NEGOTIATION] Round %d: %q -> %q", round, instruction, reply)

		switch {
		case requestID == "":
			requestID = requestIDPattern.FindString(reply)
		case proof == "":
			if idx := strings.Index(reply, "proof:"); idx >= 0 {
				proof = proofTokenPattern.FindString(reply[idx:])
			}
		default:
			if strings.Contains(reply, "settled") {
				return reply, nil
			}
		}
	}

	return "", fmt.Errorf("negotiation round limit of %d exceeded without settlement", ns.maxRounds)
}

// sendToPeer posts one instruction to the peer agent's /chat endpoint with a
// freshly signed bearer token.
func (ns *NegotiationService) sendToPeer(ctx context.Context, instruction string) (string, error) {
	body, err := json.Marshal(models.ChatRequest{Instruction: instruction})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ns.peerURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := GenerateAgentToken(viper.GetString("agent.client_id"), time.Now().Add(5*time.Minute))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ns.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("peer returned an unreadable response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("peer rejected instruction with status %d", resp.StatusCode)
	}

	if chatResp.Token != "" {
		return decodeSignedResult(chatResp.Token)
	}
	return chatResp.Result, nil
}

// decodeSignedResult extracts the result claim from a signed relay response.
func decodeSignedResult(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("peer returned an unverifiable signed result: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("peer signed result carries no claims")
	}

	result, _ := claims["result"].(string)
	return result, nil
}
