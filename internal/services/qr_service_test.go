package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentswap/backend/internal/models"
)

func qrTestRequest() *models.SwapRequest {
	return &models.SwapRequest{
		ID:           "fd6c63c6-33c4-4aa0-913d-6ec3c77b972c",
		Pair:         "USD/JPY",
		SourceAmount: decimal.NewFromInt(25),
		TargetAmount: decimal.RequireFromString("0.1667"),
		Rate:         decimal.NewFromInt(150),
		Status:       models.SwapStatusPending,
		CreatedAt:    time.Now(),
	}
}

func TestQRServiceGenerateRequestQR(t *testing.T) {
	ctx := context.Background()

	t.Run("Handle Decodes To Request Payload", func(t *testing.T) {
		service := NewQRService(nil)

		handle, image, err := service.GenerateRequestQR(ctx, qrTestRequest())
		require.NoError(t, err)

		decoded, err := base64.URLEncoding.DecodeString(handle)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(decoded, &payload))
		assert.Equal(t, "fd6c63c6-33c4-4aa0-913d-6ec3c77b972c", payload["requestId"])
		assert.Equal(t, "USD/JPY", payload["pair"])
		assert.Equal(t, "25", payload["sourceAmount"])
		assert.Equal(t, "0.1667", payload["targetAmount"])
		assert.Equal(t, "150", payload["rate"])

		imageData, err := base64.StdEncoding.DecodeString(image)
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(imageData))
		assert.NoError(t, err)
	})

	t.Run("Caches Handle In Redis", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service := NewQRService(redisClient)

		req := qrTestRequest()
		redisMock.Regexp().ExpectSet("qr:"+req.ID, `\{.*\}`, qrHandleTTL).SetVal("OK")

		_, _, err := service.GenerateRequestQR(ctx, req)
		require.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
