package post

import "errors"

var (
	ErrRateLimited  = errors.New("already posted a track within the last 24 hours")
	ErrNotFound     = errors.New("post not found")
	ErrAlreadyLiked = errors.New("post already liked")
	ErrNotLiked     = errors.New("post not liked")

	ErrEmptyComment   = errors.New("comment cannot be empty")
	ErrCommentTooLong = errors.New("comment exceeds maximum length")
	ErrMissingAuthor  = errors.New("author name is required")
)
