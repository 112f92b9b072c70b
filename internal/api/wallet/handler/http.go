package walletHandler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	walletService "VoicePay/internal/api/wallet/service"
	"VoicePay/internal/middleware"
)

type WalletHandler struct {
	log           *logrus.Logger
	middleware    middleware.Middleware
	walletService walletService.IWalletService
}

func New(log *logrus.Logger, middleware middleware.Middleware, ws walletService.IWalletService) *WalletHandler {
	return &WalletHandler{
		log:           log,
		middleware:    middleware,
		walletService: ws,
	}
}

func (h *WalletHandler) Start(srv fiber.Router) {
	wallet := srv.Group("/wallet")

	wallet.Get("/:address/balance", h.middleware.NewRateLimiter, h.GetBalance)
}
