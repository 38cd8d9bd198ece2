package post

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Antorou/Togesong/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create inserts a post only if the author has no post newer than the
// retention window. The guard and the insert are one statement, so two
// concurrent submissions from the same user cannot both pass the check.
func (s *Service) Create(ctx context.Context, input Post) (Post, error) {
	input.ID = uuid.NewString()
	input.Likes = []string{}
	row := s.db.QueryRow(ctx, `
		INSERT INTO track_posts (id, user_id, user_name, user_avatar_url, track_id, title, artist, album, cover_url, preview_url)
		SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
		WHERE NOT EXISTS (
			SELECT 1 FROM track_posts WHERE user_id = $2 AND posted_at > $11
		)
		RETURNING posted_at
	`, input.ID, input.UserID, input.UserName, input.UserAvatarURL,
		input.TrackID, input.Title, input.Artist, input.Album,
		input.CoverURL, input.PreviewURL, time.Now().Add(-RetentionWindow))
	if err := row.Scan(&input.PostedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, ErrRateLimited
		}
		return Post{}, err
	}
	return input, nil
}

// Like adds userID to the post's like set and returns the new count.
// The membership guard lives in the UPDATE itself, so concurrent likers
// cannot lose each other's writes.
func (s *Service) Like(ctx context.Context, postID, userID string) (int, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE track_posts
		SET likes = array_append(likes, $2)
		WHERE id = $1 AND NOT ($2 = ANY(likes))
		RETURNING cardinality(likes)
	`, postID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, s.likeConflict(ctx, postID, ErrAlreadyLiked)
		}
		return 0, err
	}
	return count, nil
}

// Unlike removes userID from the post's like set and returns the new count.
func (s *Service) Unlike(ctx context.Context, postID, userID string) (int, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE track_posts
		SET likes = array_remove(likes, $2)
		WHERE id = $1 AND $2 = ANY(likes)
		RETURNING cardinality(likes)
	`, postID, userID)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, s.likeConflict(ctx, postID, ErrNotLiked)
		}
		return 0, err
	}
	return count, nil
}

// likeConflict distinguishes a missing post from a failed membership guard.
func (s *Service) likeConflict(ctx context.Context, postID string, conflict error) error {
	row := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM track_posts WHERE id = $1)`, postID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return conflict
}

func (s *Service) AddComment(ctx context.Context, input Comment) (Comment, error) {
	input.Text = strings.TrimSpace(input.Text)
	if input.Text == "" {
		return Comment{}, ErrEmptyComment
	}
	// The schema bound is char_length, so count runes, not bytes.
	if utf8.RuneCountInString(input.Text) > maxCommentLength {
		return Comment{}, ErrCommentTooLong
	}
	if input.UserName == "" {
		return Comment{}, ErrMissingAuthor
	}

	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO comments (id, post_id, user_id, user_name, user_avatar_url, text)
		SELECT $1,$2,$3,$4,$5,$6
		WHERE EXISTS (SELECT 1 FROM track_posts WHERE id = $2)
		RETURNING posted_at
	`, input.ID, input.PostID, input.UserID, input.UserName, input.UserAvatarURL, input.Text)
	if err := row.Scan(&input.PostedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, err
	}
	return input, nil
}

// Comments returns a post's comments newest first. Unknown post ids yield
// an empty slice, not an error.
func (s *Service) Comments(ctx context.Context, postID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, post_id, user_id, user_name, user_avatar_url, text, posted_at
		FROM comments WHERE post_id = $1
		ORDER BY posted_at DESC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.UserName, &c.UserAvatarURL, &c.Text, &c.PostedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Feed returns every non-expired post, newest first.
func (s *Service) Feed(ctx context.Context) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, user_name, user_avatar_url, track_id, title, artist, album, cover_url, preview_url, likes, posted_at
		FROM track_posts
		WHERE posted_at > $1
		ORDER BY posted_at DESC
	`, time.Now().Add(-RetentionWindow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ByUser returns one user's non-expired posts, newest first. Clients use
// this to derive "has posted today" from server data.
func (s *Service) ByUser(ctx context.Context, userID string) ([]Post, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, user_name, user_avatar_url, track_id, title, artist, album, cover_url, preview_url, likes, posted_at
		FROM track_posts
		WHERE user_id = $1 AND posted_at > $2
		ORDER BY posted_at DESC
	`, userID, time.Now().Add(-RetentionWindow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// PurgeExpired deletes posts past the retention window, then comments
// whose parent post is gone. Returns the number of posts removed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM track_posts WHERE posted_at <= $1
	`, time.Now().Add(-RetentionWindow))
	if err != nil {
		return 0, err
	}
	_, err = s.db.Exec(ctx, `
		DELETE FROM comments
		WHERE NOT EXISTS (SELECT 1 FROM track_posts WHERE track_posts.id = comments.post_id)
	`)
	if err != nil {
		return tag.RowsAffected(), err
	}
	return tag.RowsAffected(), nil
}

func scanPosts(rows pgx.Rows) ([]Post, error) {
	posts := []Post{}
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserAvatarURL,
			&p.TrackID, &p.Title, &p.Artist, &p.Album,
			&p.CoverURL, &p.PreviewURL, &p.Likes, &p.PostedAt); err != nil {
			return nil, err
		}
		if p.Likes == nil {
			p.Likes = []string{}
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
