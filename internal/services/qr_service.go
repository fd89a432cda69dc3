package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/agentswap/backend/internal/models"
)

const qrHandleTTL = 5 * time.Minute

// QRService renders a scannable artifact for a pending swap request so a
// human operator can hand the request handle to a counterparty out of band.
type QRService struct {
	redis *redis.Client
}

func NewQRService(redisClient *redis.Client) *QRService {
	return &QRService{redis: redisClient}
}

// GenerateRequestQR encodes the swap request handle as a QR code and caches
// the handle payload in Redis for the QR's lifetime.
func (s *QRService) GenerateRequestQR(ctx context.Context, req *models.SwapRequest) (string, string, error) {
	payload := map[string]any{
		"requestId":    req.ID,
		"pair":         req.Pair,
		"sourceAmount": req.SourceAmount.String(),
		"targetAmount": req.TargetAmount.String(),
		"rate":         req.Rate.String(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	handle := base64.URLEncoding.EncodeToString(jsonData)

	if s.redis != nil {
		key := fmt.Sprintf("qr:%s", req.ID)
		if err := s.redis.Set(ctx, key, string(jsonData), qrHandleTTL).Err(); err != nil {
			return "", "", err
		}
	}

	qr, err := qrcode.New(handle, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return handle, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
