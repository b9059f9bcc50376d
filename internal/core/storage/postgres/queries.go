package postgres

// SQL queries for signal, insight, and alert storage.

const (
	// querySaveSignal inserts a signal with id idempotency.
	// RETURNING clause retrieves auto-generated ingest_seq for cursor tracking.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveSignal = `
		INSERT INTO signals (
			id, schema_id, user_id, session_id, version,
			event_at, ingested_at, attributes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryRetrieveSignalsByUser fetches one user's history in event-time
	// order (nulls are impossible: event_at is NOT NULL after validation).
	queryRetrieveSignalsByUser = `
		SELECT
			id, schema_id, user_id, session_id, version,
			event_at, ingested_at, attributes, ingest_seq
		FROM signals
		WHERE user_id = $1
		ORDER BY event_at ASC, ingest_seq ASC
		LIMIT $2
	`

	// queryRetrieveSignalsAfterCursor fetches signals after a cursor
	// (ingest_seq) in strict total order. Used by batch analysis passes.
	queryRetrieveSignalsAfterCursor = `
		SELECT
			id, schema_id, user_id, session_id, version,
			event_at, ingested_at, attributes, ingest_seq
		FROM signals
		WHERE ingest_seq > $1
		ORDER BY ingest_seq ASC
		LIMIT $2
	`

	// queryNextPendingUser picks the user with the oldest unanalyzed
	// activity: their newest signal is more recent than their last analysis
	// (or they have never been analyzed).
	queryNextPendingUser = `
		SELECT s.user_id
		FROM signals s
		WHERE s.user_id <> ''
		GROUP BY s.user_id
		HAVING max(s.ingested_at) > COALESCE(
			(SELECT i.analyzed_at FROM insights i WHERE i.user_id = s.user_id),
			'epoch'::timestamptz)
		ORDER BY max(s.ingested_at) ASC
		LIMIT 1
	`

	// querySaveInsight upserts the single current insight per user.
	querySaveInsight = `
		INSERT INTO insights (
			user_id, patterns, scores, segment, preferences,
			recommendations, analyzed_at, valid_until, analysis_version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			patterns = EXCLUDED.patterns,
			scores = EXCLUDED.scores,
			segment = EXCLUDED.segment,
			preferences = EXCLUDED.preferences,
			recommendations = EXCLUDED.recommendations,
			analyzed_at = EXCLUDED.analyzed_at,
			valid_until = EXCLUDED.valid_until,
			analysis_version = EXCLUDED.analysis_version
	`

	queryRetrieveInsight = `
		SELECT
			user_id, patterns, scores, segment, preferences,
			recommendations, analyzed_at, valid_until, analysis_version
		FROM insights
		WHERE user_id = $1
	`

	// querySaveAlert appends one alert row. Alerts are never updated.
	querySaveAlert = `
		INSERT INTO alerts (
			user_id, signal_id, alert_type, severity, message, context, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
)
