package walletHandler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	contextPkg "VoicePay/pkg/context"
	"VoicePay/pkg/handlerUtil"
	"VoicePay/pkg/log"
)

func (h *WalletHandler) GetBalance(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 15*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	address := ctx.Params("address")
	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"address":    address,
	}).Debug("Processing balance request")

	res, err := h.walletService.GetBalance(c, address)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_balance")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
