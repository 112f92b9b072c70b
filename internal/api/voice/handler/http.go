package voiceHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	voiceService "VoicePay/internal/api/voice/service"
	"VoicePay/internal/middleware"
	"VoicePay/pkg/utils"
)

type VoiceHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	voiceService voiceService.IVoiceService
	utils        utils.IUtils
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	vs voiceService.IVoiceService,
	u utils.IUtils,
) *VoiceHandler {
	return &VoiceHandler{
		log:          log,
		validator:    validate,
		middleware:   middleware,
		voiceService: vs,
		utils:        u,
	}
}

func (h *VoiceHandler) Start(srv fiber.Router) {
	voice := srv.Group("/voice")

	voice.Post("/parse", h.middleware.NewRateLimiter, h.ParseVoiceCommand)
	voice.Post("/transcribe", h.middleware.NewRateLimiter, h.TranscribeAudio)

	voice.Get("/history", h.GetVoiceHistory)
	voice.Get("/history/:id", h.GetVoiceCommand)
}
