package model

import "time"

// ForumMessage is a post on the public forum.
type ForumMessage struct {
	ID        uint64       `json:"id"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	AuthorID  uint64       `json:"authorId"`
	Author    *ForumAuthor `json:"author,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// ForumAuthor is the public part of a user shown next to a post.
type ForumAuthor struct {
	ID       uint64  `json:"id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
}
