package db

import (
	"github.com/AndrewSerulneck/Trivia-Predictions/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Venue{},
		&models.User{},
		&models.TriviaQuestion{},
		&models.TriviaAnswer{},
		&models.Pick{},
		&models.Notification{},
		&models.Advertisement{},
		&models.AdEvent{},
		&models.SystemSetting{},
	)
}

// settleProcedureDDL settles every pending pick for one market in a single
// transaction: statuses, resolved_at, winner balance credits, and per-pick
// notifications all commit or roll back together.
const settleProcedureDDL = `
CREATE OR REPLACE FUNCTION settle_prediction_market(
    p_prediction_id text,
    p_winning_outcome_id text,
    p_settle_as_canceled boolean
) RETURNS TABLE (affected_picks int, winners int, losers int, canceled int)
LANGUAGE plpgsql AS $$
DECLARE
    v_now timestamptz := now();
    v_affected int := 0;
    v_winners int := 0;
    v_losers int := 0;
    v_canceled int := 0;
BEGIN
    WITH updated AS (
        UPDATE user_predictions
        SET status = CASE
                WHEN p_settle_as_canceled THEN 'canceled'
                WHEN outcome_id = p_winning_outcome_id THEN 'won'
                ELSE 'lost'
            END,
            resolved_at = v_now
        WHERE prediction_id = p_prediction_id
          AND status = 'pending'
        RETURNING id, user_id, outcome_title, points, status
    ), credited AS (
        UPDATE users u
        SET points = u.points + w.total
        FROM (
            SELECT user_id, SUM(points) AS total
            FROM updated WHERE status = 'won' GROUP BY user_id
        ) w
        WHERE u.id = w.user_id
        RETURNING u.id
    ), notified AS (
        INSERT INTO notifications (id, user_id, message, type, read, created_at)
        SELECT gen_random_uuid()::text,
               user_id,
               CASE status
                   WHEN 'won' THEN 'Prediction resolved: ' || outcome_title || ' won. You earned ' || points || ' points.'
                   WHEN 'canceled' THEN 'Prediction canceled: ' || outcome_title || ' market was canceled.'
                   ELSE 'Prediction resolved: ' || outcome_title || ' did not win.'
               END,
               CASE status
                   WHEN 'won' THEN 'success'
                   WHEN 'canceled' THEN 'info'
                   ELSE 'warning'
               END,
               false,
               v_now
        FROM updated
        RETURNING id
    )
    SELECT COUNT(*),
           COUNT(*) FILTER (WHERE status = 'won'),
           COUNT(*) FILTER (WHERE status = 'lost'),
           COUNT(*) FILTER (WHERE status = 'canceled')
    INTO v_affected, v_winners, v_losers, v_canceled
    FROM updated;

    RETURN QUERY SELECT v_affected, v_winners, v_losers, v_canceled;
END;
$$;
`

// EnsureSettlementProcedure installs the atomic settlement path. Deployments
// without DDL rights skip this and run on the legacy per-row path instead.
func EnsureSettlementProcedure(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.Exec(settleProcedureDDL).Error
}
