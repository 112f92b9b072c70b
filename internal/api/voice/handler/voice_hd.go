package voiceHandler

import (
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"

	"VoicePay/internal/api/voice"
	"VoicePay/internal/entity"
	contextPkg "VoicePay/pkg/context"
	"VoicePay/pkg/handlerUtil"
	"VoicePay/pkg/log"
)

const requestTimeout = 30 * time.Second

func (h *VoiceHandler) ParseVoiceCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing voice parse request")

	var req voice.ParseRequest
	if err := ctx.BodyParser(&req); err != nil || req.Text == nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidRequest, ctx.Path(), "parse_voice_command")
	}

	text, ok := req.Text.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidText, ctx.Path(), "parse_voice_command")
	}

	cmd, parseErr := h.voiceService.ParseVoiceCommand(c, text)
	if parseErr != nil {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"code":       parseErr.Code,
			"details":    parseErr.Details,
		}).Info("Voice command could not be parsed")

		return ctx.Status(parseErrorStatus(parseErr.Code)).JSON(parseErr)
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, cmd)
	}
}

func parseErrorStatus(code entity.ParseErrorCode) int {
	switch code {
	case entity.ParseErrMissingParameters, entity.ParseErrAmbiguousCommand:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *VoiceHandler) TranscribeAudio(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	audioFile, err := ctx.FormFile("audio")
	if err != nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidAudio.WithMessage("audio file is required"), ctx.Path(), "transcribe_audio")
	}
	if err := h.utils.ValidateAudioFile(audioFile); err != nil {
		return errHandler.Handle(ctx, requestID, voice.ErrInvalidAudio.WithMessage(err.Error()), ctx.Path(), "transcribe_audio")
	}

	var req voice.TranscribeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(req); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	file, err := audioFile.Open()
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "transcribe_audio")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "transcribe_audio")
	}

	res, err := h.voiceService.Transcribe(c, voice.TranscribeInput{
		Audio:           data,
		Filename:        audioFile.Filename,
		ContentType:     audioFile.Header.Get(fiber.HeaderContentType),
		Encoding:        req.Encoding,
		SampleRateHertz: req.SampleRateHertz,
		LanguageCode:    req.LanguageCode,
	})
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "transcribe_audio")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VoiceHandler) GetVoiceHistory(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var query voice.HistoryQuery
	if err := ctx.QueryParser(&query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(query); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.voiceService.GetVoiceHistory(c, query.Limit, query.Offset)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_voice_history")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}

func (h *VoiceHandler) GetVoiceCommand(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), requestTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var params voice.VoiceCommandParams
	if err := ctx.ParamsParser(&params); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}
	if err := h.validator.Struct(params); err != nil {
		return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
	}

	res, err := h.voiceService.GetVoiceCommand(c, params.ID)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "get_voice_command")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
