package database

import (
	"context"
	"database/sql"
)

// schema holds the DDL for every table this service owns. Statements use
// IF NOT EXISTS so EnsureSchema is safe to run on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		full_name  VARCHAR(191)    NOT NULL,
		phone      VARCHAR(32)     NOT NULL DEFAULT '',
		is_active  TINYINT(1)      NOT NULL DEFAULT 1,
		created_at DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS matches (
		id                      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		client_id                  BIGINT UNSIGNED NOT NULL,
		professional_id            BIGINT UNSIGNED NOT NULL,
		status                     VARCHAR(16)     NOT NULL DEFAULT 'active',
		quoted_price_cents         INT UNSIGNED    NOT NULL DEFAULT 0,
		delivery_days              INT UNSIGNED    NOT NULL DEFAULT 0,
		proposal_message           TEXT            NULL,
		completion_requested_by    BIGINT UNSIGNED NULL,
		completion_request_comment TEXT            NULL,
		is_completed            TINYINT(1)      NOT NULL DEFAULT 0,
		completed_at            DATETIME        NULL,
		created_at              DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		updated_at              DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		PRIMARY KEY (id),
		KEY idx_matches_client (client_id),
		KEY idx_matches_professional (professional_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reveal_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		token      CHAR(64)        NOT NULL,
		match_id   BIGINT UNSIGNED NOT NULL,
		issued_to  BIGINT UNSIGNED NOT NULL,
		expires_at DATETIME        NOT NULL,
		used_at    DATETIME        NULL,
		created_at DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		PRIMARY KEY (id),
		UNIQUE KEY uq_reveal_tokens_token (token),
		KEY idx_reveal_tokens_match (match_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		event_id   VARCHAR(64)     NULL,
		type       VARCHAR(32)     NOT NULL,
		title      VARCHAR(191)    NOT NULL,
		message    TEXT            NOT NULL,
		` + "`read`" + `     TINYINT(1)      NOT NULL DEFAULT 0,
		action_url VARCHAR(512)    NULL,
		metadata   TEXT            NULL,
		created_at DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		read_at    DATETIME        NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_notifications_event_user (event_id, user_id),
		KEY idx_notifications_user_created (user_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		match_id      BIGINT UNSIGNED NOT NULL,
		reviewer_id   BIGINT UNSIGNED NOT NULL,
		reviewee_id   BIGINT UNSIGNED NOT NULL,
		overall_rating       TINYINT UNSIGNED NOT NULL,
		quality_rating       TINYINT UNSIGNED NULL,
		communication_rating TINYINT UNSIGNED NULL,
		timeliness_rating    TINYINT UNSIGNED NULL,
		comment       TEXT            NULL,
		created_at    DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		PRIMARY KEY (id),
		UNIQUE KEY uq_reviews_match_reviewer (match_id, reviewer_id),
		KEY idx_reviews_reviewee (reviewee_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS service_requests (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		client_id   BIGINT UNSIGNED NOT NULL,
		title       VARCHAR(191)    NOT NULL,
		description TEXT            NULL,
		created_at  DATETIME        NOT NULL DEFAULT (UTC_TIMESTAMP()),
		PRIMARY KEY (id),
		KEY idx_service_requests_client (client_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables. It runs the statements one at a
// time because the MySQL driver does not allow multi-statement Exec by
// default.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
