package voiceService

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/voice"
	contextPkg "VoicePay/pkg/context"
)

const defaultHistoryLimit = 20

func (s *voiceService) GetVoiceHistory(ctx context.Context, limit, offset int) (*voice.HistoryResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.voiceRepo == nil {
		return nil, voice.ErrHistoryUnavailable
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[voiceService.GetVoiceHistory] failed to create repository client")
		return nil, err
	}

	commands, total, err := repo.VoiceCommands.ListVoiceCommands(ctx, limit, offset)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[voiceService.GetVoiceHistory] failed to list voice commands")
		return nil, err
	}

	items := make([]voice.VoiceCommandResponse, 0, len(commands))
	for _, cmd := range commands {
		items = append(items, voice.NewVoiceCommandResponse(cmd))
	}

	return &voice.HistoryResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetVoiceCommand returns one audit row. When the recording was archived and
// S3 is configured the response carries a presigned download link.
func (s *voiceService) GetVoiceCommand(ctx context.Context, id string) (*voice.VoiceCommandDetail, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.voiceRepo == nil {
		return nil, voice.ErrHistoryUnavailable
	}

	repo, err := s.voiceRepo.NewClient(false)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("[voiceService.GetVoiceCommand] failed to create repository client")
		return nil, err
	}

	cmd, err := repo.VoiceCommands.GetVoiceCommandByID(ctx, id)
	if err != nil {
		if errors.Is(err, voice.ErrVoiceCommandNotFound) {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"id":         id,
			"error":      err.Error(),
		}).Error("[voiceService.GetVoiceCommand] failed to get voice command")
		return nil, err
	}

	out := &voice.VoiceCommandDetail{VoiceCommandResponse: voice.NewVoiceCommandResponse(cmd)}
	if cmd.AudioKey.Valid && cmd.AudioKey.String != "" && s.s3Client != nil {
		url, err := s.s3Client.PresignUrl(cmd.AudioKey.String)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"audio_key":  cmd.AudioKey.String,
				"error":      err.Error(),
			}).Warn("[voiceService.GetVoiceCommand] failed to presign audio url")
		} else {
			out.AudioURL = url
		}
	}

	return out, nil
}
