package voiceService

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/voice"
	voiceRepository "VoicePay/internal/api/voice/repository"
	"VoicePay/internal/entity"
	"VoicePay/pkg/audio"
	"VoicePay/pkg/metrics"
	"VoicePay/pkg/nlp"
	"VoicePay/pkg/s3"
	"VoicePay/pkg/utils"
)

type IVoiceService interface {
	ParseVoiceCommand(ctx context.Context, text string) (*entity.ParsedCommand, *entity.ParseError)
	Transcribe(ctx context.Context, in voice.TranscribeInput) (*voice.TranscribeResponse, error)
	GetVoiceHistory(ctx context.Context, limit, offset int) (*voice.HistoryResponse, error)
	GetVoiceCommand(ctx context.Context, id string) (*voice.VoiceCommandDetail, error)
}

type voiceService struct {
	log         *logrus.Logger
	voiceRepo   voiceRepository.Repository
	extractor   nlp.ICommandExtractor
	transcriber audio.ITranscriber
	s3Client    s3.ItfS3
	utils       utils.IUtils
	metrics     *metrics.Metrics
	now         func() time.Time
}

// Deps lists the collaborators of the voice service. VoiceRepo, Transcriber
// and S3Client are optional; the features that need them are disabled when
// they are nil.
type Deps struct {
	VoiceRepo   voiceRepository.Repository
	Extractor   nlp.ICommandExtractor
	Transcriber audio.ITranscriber
	S3Client    s3.ItfS3
	Utils       utils.IUtils
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

func NewVoiceService(log *logrus.Logger, deps Deps) IVoiceService {
	if deps.Utils == nil {
		deps.Utils = utils.New()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &voiceService{
		log:         log,
		voiceRepo:   deps.VoiceRepo,
		extractor:   deps.Extractor,
		transcriber: deps.Transcriber,
		s3Client:    deps.S3Client,
		utils:       deps.Utils,
		metrics:     deps.Metrics,
		now:         deps.Now,
	}
}
