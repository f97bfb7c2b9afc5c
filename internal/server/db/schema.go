package db

import (
	"context"
	"fmt"
)

// Migrate applies the schema and the row-level security policies. The
// policies are the authoritative access layer: they read app.user_id and
// app.user_role from the transaction session state injected by InTx and
// treat missing settings as an anonymous caller.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}

	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id          BIGSERIAL PRIMARY KEY,
		slug        TEXT NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		parent_id   BIGINT REFERENCES categories(id) ON DELETE SET NULL,
		position    INT NOT NULL DEFAULT 0,
		published   BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT categories_slug_key UNIQUE (slug)
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		slug        TEXT NOT NULL,
		category_id BIGINT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		summary     TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12,2) NOT NULL DEFAULT 0,
		image_url   TEXT NOT NULL DEFAULT '',
		published   BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT products_slug_key UNIQUE (slug)
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id           BIGSERIAL PRIMARY KEY,
		slug         TEXT NOT NULL,
		author_id    BIGINT REFERENCES users(id) ON DELETE SET NULL,
		title        TEXT NOT NULL,
		excerpt      TEXT NOT NULL DEFAULT '',
		body         TEXT NOT NULL DEFAULT '',
		cover_url    TEXT NOT NULL DEFAULT '',
		published    BOOLEAN NOT NULL DEFAULT false,
		published_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT posts_slug_key UNIQUE (slug)
	)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id          BIGSERIAL PRIMARY KEY,
		post_id     BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		author_name TEXT NOT NULL,
		body        TEXT NOT NULL,
		approved    BOOLEAN NOT NULL DEFAULT false,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS post_likes (
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		visitor_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT post_likes_pkey PRIMARY KEY (post_id, visitor_id)
	)`,

	`CREATE TABLE IF NOT EXISTS visits (
		id         BIGSERIAL PRIMARY KEY,
		visitor_id TEXT NOT NULL,
		path       TEXT NOT NULL,
		referrer   TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS leads (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL,
		phone       TEXT NOT NULL DEFAULT '',
		message     TEXT NOT NULL DEFAULT '',
		source_path TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS push_subscriptions (
		id         BIGSERIAL PRIMARY KEY,
		endpoint   TEXT NOT NULL,
		keys       JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT push_subscriptions_endpoint_key UNIQUE (endpoint)
	)`,

	`CREATE TABLE IF NOT EXISTS uploads (
		id           BIGSERIAL PRIMARY KEY,
		path         TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes   BIGINT NOT NULL,
		uploaded_by  BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Row-level security. current_setting(..., true) returns NULL instead of
	// failing when the variable was never set, which is how an anonymous
	// transaction looks to the policies.
	`ALTER TABLE categories ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE categories FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS categories_read ON categories`,
	`CREATE POLICY categories_read ON categories FOR SELECT
		USING (published OR current_setting('app.user_role', true) IN ('editor', 'admin'))`,
	`DROP POLICY IF EXISTS categories_write ON categories`,
	`CREATE POLICY categories_write ON categories FOR ALL
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))
		WITH CHECK (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE products ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE products FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS products_read ON products`,
	`CREATE POLICY products_read ON products FOR SELECT
		USING (published OR current_setting('app.user_role', true) IN ('editor', 'admin'))`,
	`DROP POLICY IF EXISTS products_write ON products`,
	`CREATE POLICY products_write ON products FOR ALL
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))
		WITH CHECK (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE posts ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE posts FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS posts_read ON posts`,
	`CREATE POLICY posts_read ON posts FOR SELECT
		USING (published OR current_setting('app.user_role', true) IN ('editor', 'admin'))`,
	`DROP POLICY IF EXISTS posts_write ON posts`,
	`CREATE POLICY posts_write ON posts FOR ALL
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))
		WITH CHECK (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE comments ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE comments FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS comments_read ON comments`,
	`CREATE POLICY comments_read ON comments FOR SELECT
		USING (approved OR current_setting('app.user_role', true) IN ('editor', 'admin'))`,
	`DROP POLICY IF EXISTS comments_insert ON comments`,
	`CREATE POLICY comments_insert ON comments FOR INSERT WITH CHECK (true)`,
	`DROP POLICY IF EXISTS comments_moderate ON comments`,
	`CREATE POLICY comments_moderate ON comments FOR UPDATE
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))`,
	`DROP POLICY IF EXISTS comments_delete ON comments`,
	`CREATE POLICY comments_delete ON comments FOR DELETE
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE post_likes ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE post_likes FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS post_likes_read ON post_likes`,
	`CREATE POLICY post_likes_read ON post_likes FOR SELECT USING (true)`,
	`DROP POLICY IF EXISTS post_likes_insert ON post_likes`,
	`CREATE POLICY post_likes_insert ON post_likes FOR INSERT WITH CHECK (true)`,

	`ALTER TABLE visits ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE visits FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS visits_insert ON visits`,
	`CREATE POLICY visits_insert ON visits FOR INSERT WITH CHECK (true)`,
	`DROP POLICY IF EXISTS visits_read ON visits`,
	`CREATE POLICY visits_read ON visits FOR SELECT
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE leads ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE leads FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS leads_insert ON leads`,
	`CREATE POLICY leads_insert ON leads FOR INSERT WITH CHECK (true)`,
	`DROP POLICY IF EXISTS leads_read ON leads`,
	`CREATE POLICY leads_read ON leads FOR SELECT
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	// Subscribing upserts by endpoint with ON CONFLICT DO UPDATE, which needs
	// UPDATE policies on the conflicting row and, because of RETURNING, SELECT
	// visibility of it. Row visibility is therefore open here; listing
	// subscriptions is restricted at the route by the push.send capability.
	`ALTER TABLE push_subscriptions ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE push_subscriptions FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS push_subscriptions_insert ON push_subscriptions`,
	`CREATE POLICY push_subscriptions_insert ON push_subscriptions FOR INSERT WITH CHECK (true)`,
	`DROP POLICY IF EXISTS push_subscriptions_update ON push_subscriptions`,
	`CREATE POLICY push_subscriptions_update ON push_subscriptions FOR UPDATE
		USING (true) WITH CHECK (true)`,
	`DROP POLICY IF EXISTS push_subscriptions_read ON push_subscriptions`,
	`CREATE POLICY push_subscriptions_read ON push_subscriptions FOR SELECT USING (true)`,

	`ALTER TABLE uploads ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE uploads FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS uploads_all ON uploads`,
	`CREATE POLICY uploads_all ON uploads FOR ALL
		USING (current_setting('app.user_role', true) IN ('editor', 'admin'))
		WITH CHECK (current_setting('app.user_role', true) IN ('editor', 'admin'))`,

	`ALTER TABLE users ENABLE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS users_read ON users`,
	`CREATE POLICY users_read ON users FOR SELECT
		USING (current_setting('app.user_role', true) = 'admin'
			OR id::text = current_setting('app.user_id', true))`,
	`DROP POLICY IF EXISTS users_write ON users`,
	`CREATE POLICY users_write ON users FOR ALL
		USING (current_setting('app.user_role', true) = 'admin')
		WITH CHECK (current_setting('app.user_role', true) = 'admin')`,
}
