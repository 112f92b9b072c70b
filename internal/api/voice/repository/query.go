package voiceRepository

const (
	queryCreateVoiceCommand = `
		INSERT INTO voice_commands (
			id, request_id, raw_text, outcome, action,
			amount, recipient, confidence, details, audio_key, created_at
		) VALUES (
			:id, :request_id, :raw_text, :outcome, :action,
			:amount, :recipient, :confidence, :details, :audio_key, :created_at
		)
	`

	queryGetVoiceCommandByID = `
		SELECT
			id, request_id, raw_text, outcome, action,
			amount, recipient, confidence, details, audio_key, created_at
		FROM voice_commands
		WHERE id = :id
	`

	queryListVoiceCommands = `
		SELECT
			id, request_id, raw_text, outcome, action,
			amount, recipient, confidence, details, audio_key, created_at
		FROM voice_commands
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountVoiceCommands = `
		SELECT COUNT(*)
		FROM voice_commands
	`
)
