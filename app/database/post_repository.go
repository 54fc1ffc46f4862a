package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ PostRepository = (*PostRepositoryImpl)(nil)

type PostRepositoryImpl struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

func (r *PostRepositoryImpl) IsProcessed(postID int) (bool, error) {
	var id int
	err := r.db.QueryRow(`SELECT id FROM processed_posts WHERE id = ? LIMIT 1`, postID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check processed post: %w", err)
	}
	return true, nil
}

func (r *PostRepositoryImpl) MarkProcessed(post ProcessedPost) error {
	sentAt := post.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO processed_posts (id, title, url, author, sent_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			author = excluded.author,
			sent_at = excluded.sent_at
	`, post.ID, post.Title, post.URL, post.Author, sentAt)
	if err != nil {
		return fmt.Errorf("failed to mark post processed: %w", err)
	}

	return nil
}

func (r *PostRepositoryImpl) LastPostID() (int, error) {
	var id sql.NullInt64
	err := r.db.QueryRow(`SELECT MAX(id) FROM processed_posts`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get last post id: %w", err)
	}
	return int(id.Int64), nil
}

func (r *PostRepositoryImpl) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM processed_posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count processed posts: %w", err)
	}
	return count, nil
}

func (r *PostRepositoryImpl) GetRecent(limit int) ([]ProcessedPost, error) {
	rows, err := r.db.Query(`
		SELECT id, title, url, author, sent_at
		FROM processed_posts
		ORDER BY sent_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent posts: %w", err)
	}
	defer rows.Close()

	var posts []ProcessedPost
	for rows.Next() {
		var p ProcessedPost
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Author, &p.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

// Prune keeps only the most recent posts so the table cannot grow without
// bound, mirroring the bounded id cache the watcher needs for dedup.
func (r *PostRepositoryImpl) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM processed_posts
		WHERE id NOT IN (
			SELECT id FROM processed_posts ORDER BY id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune processed posts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned posts: %w", err)
	}

	return deleted, nil
}
