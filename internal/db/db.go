package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            full_name TEXT NOT NULL DEFAULT '',
            avatar_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS capsules (
            id SERIAL PRIMARY KEY,
            owner_id INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL DEFAULT '',
            content TEXT NOT NULL DEFAULT '',
            content_type TEXT NOT NULL,
            unlock_at TIMESTAMPTZ NOT NULL,
            is_private BOOLEAN NOT NULL DEFAULT FALSE,
            share_token TEXT NOT NULL UNIQUE,
            file_url TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_capsules_owner ON capsules(owner_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_capsules_public ON capsules(created_at DESC) WHERE is_private = FALSE;`,
		`CREATE TABLE IF NOT EXISTS friends (
            id SERIAL PRIMARY KEY,
            requester_id INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            addressee_id INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CHECK (requester_id <> addressee_id)
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_friends_pair_active
            ON friends (LEAST(requester_id, addressee_id), GREATEST(requester_id, addressee_id))
            WHERE status IN ('pending', 'accepted');`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            receiver_id INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS shared_capsules (
            id SERIAL PRIMARY KEY,
            capsule_id INT NOT NULL REFERENCES capsules(id) ON DELETE CASCADE,
            shared_by INT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            recipient_email TEXT,
            recipient_friend_id INT REFERENCES profiles(id) ON DELETE CASCADE,
            shared_via TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_shared_capsules_recipient ON shared_capsules(recipient_friend_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_shared_capsules_link
            ON shared_capsules(capsule_id) WHERE shared_via = 'link';`,
		`CREATE TABLE IF NOT EXISTS user_roles (
            user_id INT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
            role TEXT NOT NULL DEFAULT 'user'
        );`,
		`CREATE TABLE IF NOT EXISTS role_changes (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            changed_by INT NOT NULL,
            old_role TEXT NOT NULL,
            new_role TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
