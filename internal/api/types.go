// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import "time"

// Site describes the blog as a whole.
type Site struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Language    string `json:"language,omitempty"`
}

// User is an account on the site.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Post is a published or draft article.
type Post struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug,omitempty"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Content     string     `json:"content,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Category    string     `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Author      *User      `json:"author,omitempty"`
	Draft       bool       `json:"draft,omitempty"`
	Views       int64      `json:"views,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// PostInput is the writable subset of a Post.
type PostInput struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Content  string   `json:"content"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Draft    bool     `json:"draft,omitempty"`
}

// ListPostsOptions filters ListPosts. Zero values are omitted.
type ListPostsOptions struct {
	Page     int
	PageSize int
	Category string
	Tag      string
	Query    string
}

// Category groups posts.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug,omitempty"`
	Count int    `json:"count,omitempty"`
}

// Tag labels posts.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count,omitempty"`
}

// About is the site's about page.
type About struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Comment is a reader comment on a post.
type Comment struct {
	ID        int64      `json:"id"`
	PostID    int64      `json:"post_id"`
	ParentID  int64      `json:"parent_id,omitempty"`
	Author    string     `json:"author"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CommentInput is a new comment.
type CommentInput struct {
	PostID   int64  `json:"post_id"`
	ParentID int64  `json:"parent_id,omitempty"`
	Author   string `json:"author,omitempty"`
	Content  string `json:"content"`
}

// PageView is an analytics page-view beacon.
type PageView struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer,omitempty"`
}

// ClientIP is the caller's address as seen by the server.
type ClientIP struct {
	IP       string `json:"ip"`
	Location string `json:"location,omitempty"`
}

// Credentials are login credentials.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the response to a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Asset is an uploaded file.
type Asset struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}
