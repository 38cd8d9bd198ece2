package post

import "time"

// RetentionWindow is the single definition of the 24-hour rule: it bounds
// how often a user may post, which posts the feed returns, and when the
// purge loop deletes them.
const RetentionWindow = 24 * time.Hour

const maxCommentLength = 250

type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserAvatarURL string    `json:"user_avatar_url,omitempty"`
	TrackID       string    `json:"track_id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Album         string    `json:"album"`
	CoverURL      string    `json:"cover_url,omitempty"`
	PreviewURL    string    `json:"preview_url,omitempty"`
	Likes         []string  `json:"likes"`
	PostedAt      time.Time `json:"posted_at"`
}

type Comment struct {
	ID            string    `json:"id"`
	PostID        string    `json:"post_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserAvatarURL string    `json:"user_avatar_url,omitempty"`
	Text          string    `json:"text"`
	PostedAt      time.Time `json:"posted_at"`
}
