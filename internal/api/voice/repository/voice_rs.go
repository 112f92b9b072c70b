package voiceRepository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"VoicePay/internal/api/voice"
	"VoicePay/internal/entity"
	contextPkg "VoicePay/pkg/context"
)

func (r *voiceRepository) CreateVoiceCommand(ctx context.Context, cmd entity.VoiceCommand) error {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryCreateVoiceCommand, cmd)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateVoiceCommand")
		return err
	}
	query = r.q.Rebind(query)

	if _, err = r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Database error when creating voice command")
		return err
	}

	return nil
}

func (r *voiceRepository) GetVoiceCommandByID(ctx context.Context, id string) (entity.VoiceCommand, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var cmd entity.VoiceCommand

	query, args, err := sqlx.Named(queryGetVoiceCommandByID, map[string]interface{}{"id": id})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandByID named query preparation err")
		return entity.VoiceCommand{}, err
	}
	query = r.q.Rebind(query)

	if err := r.q.QueryRowxContext(ctx, query, args...).StructScan(&cmd); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.VoiceCommand{}, voice.ErrVoiceCommandNotFound
		}
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetVoiceCommandByID execution err")
		return entity.VoiceCommand{}, err
	}

	return cmd, nil
}

func (r *voiceRepository) ListVoiceCommands(ctx context.Context, limit, offset int) ([]entity.VoiceCommand, int, error) {
	requestID := contextPkg.GetRequestID(ctx)
	var total int

	if err := r.q.QueryRowxContext(ctx, queryCountVoiceCommands).Scan(&total); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("CountVoiceCommands execution err")
		return nil, 0, err
	}

	query, args, err := sqlx.Named(queryListVoiceCommands, map[string]interface{}{
		"limit":  limit,
		"offset": offset,
	})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListVoiceCommands named query preparation err")
		return nil, 0, err
	}
	query = r.q.Rebind(query)

	commands := make([]entity.VoiceCommand, 0, limit)
	if err := r.q.SelectContext(ctx, &commands, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("ListVoiceCommands execution err")
		return nil, 0, err
	}

	return commands, total, nil
}
