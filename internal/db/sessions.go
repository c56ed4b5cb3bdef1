package db

import "context"

func (q *Queries) UpsertSession(ctx context.Context, arg Session) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			expires_at = excluded.expires_at`,
		arg.SessionID, arg.UserID, arg.ExpiresAt, arg.CreatedAt)
	return err
}

// GetValidSession returns sql.ErrNoRows for unknown or expired sessions.
func (q *Queries) GetValidSession(ctx context.Context, sessionID string, now int64) (Session, error) {
	var s Session
	err := q.db.QueryRowContext(ctx, `
		SELECT session_id, user_id, expires_at, created_at FROM sessions
		WHERE session_id = ? AND expires_at > ?`, sessionID, now,
	).Scan(&s.SessionID, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	return err
}

func (q *Queries) DeleteSessionsByUserID(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
