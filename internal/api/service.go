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

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tombee/folio/internal/client"
)

// Service exposes the content API endpoints.
type Service struct {
	client *client.Client
}

// New returns a Service that calls through c.
func New(c *client.Client) *Service {
	return &Service{client: c}
}

// Client returns the underlying dispatcher.
func (s *Service) Client() *client.Client {
	return s.client
}

// Site returns the site description.
func (s *Service) Site(ctx context.Context) (*Site, error) {
	return client.Do[*Site](ctx, s.client, client.Request{Path: "/site"})
}

// ListPosts returns posts matching opts.
func (s *Service) ListPosts(ctx context.Context, opts ListPostsOptions) ([]Post, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if opts.Query != "" {
		q.Set("q", opts.Query)
	}
	return client.Do[[]Post](ctx, s.client, client.Request{Path: withQuery("/posts", q)})
}

// GetPost returns a single post. This is the read that carries attribution.
func (s *Service) GetPost(ctx context.Context, id int64) (*Post, error) {
	return client.Do[*Post](ctx, s.client, client.Request{Path: postPath(id)})
}

// CreatePost creates a post.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	return client.Do[*Post](ctx, s.client, client.Request{Path: "/posts", Method: http.MethodPost, Body: in})
}

// UpdatePost replaces the writable fields of a post.
func (s *Service) UpdatePost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	return client.Do[*Post](ctx, s.client, client.Request{Path: postPath(id), Method: http.MethodPut, Body: in})
}

// DeletePost deletes a post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	_, err := s.client.Delete(ctx, postPath(id))
	return err
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return client.Do[[]Category](ctx, s.client, client.Request{Path: "/categories"})
}

// ListTags returns all tags.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	return client.Do[[]Tag](ctx, s.client, client.Request{Path: "/tags"})
}

// About returns the about page.
func (s *Service) About(ctx context.Context) (*About, error) {
	return client.Do[*About](ctx, s.client, client.Request{Path: "/about"})
}

// ListComments returns the comments on a post.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]Comment, error) {
	q := url.Values{"post_id": {strconv.FormatInt(postID, 10)}}
	return client.Do[[]Comment](ctx, s.client, client.Request{Path: withQuery("/comments", q)})
}

// CreateComment adds a comment.
func (s *Service) CreateComment(ctx context.Context, in CommentInput) (*Comment, error) {
	return client.Do[*Comment](ctx, s.client, client.Request{Path: "/comments", Method: http.MethodPost, Body: in})
}

// TrackPageView records a page view. Session failures on this endpoint are
// never announced.
func (s *Service) TrackPageView(ctx context.Context, pv PageView) error {
	_, err := s.client.Post(ctx, "/analytics/page-view", pv)
	return err
}

// ClientIP returns the caller's address as seen by the server.
func (s *Service) ClientIP(ctx context.Context) (*ClientIP, error) {
	return client.Do[*ClientIP](ctx, s.client, client.Request{Path: "/analytics/client-ip"})
}

// Login exchanges credentials for a token and stores it. Any previously
// stored credential is discarded first so an expired one cannot block the
// exchange.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	store := s.client.Credentials()
	store.Clear(ctx)

	res, err := client.Do[*LoginResult](ctx, s.client, client.Request{Path: "/auth/login", Method: http.MethodPost, Body: creds})
	if err != nil {
		return nil, err
	}
	if res == nil || res.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	store.Set(ctx, res.Token)
	return res, nil
}

// Logout ends the server session and clears the stored credential. A 401,
// or a stored token that has already expired, means the session was
// already gone and is not an error.
func (s *Service) Logout(ctx context.Context) error {
	defer s.client.Credentials().Clear(ctx)

	if s.client.Credentials().Get(ctx) == "" {
		return nil
	}
	_, err := s.client.Post(ctx, "/auth/logout", nil)
	if err != nil && !client.IsUnauthorized(err) {
		return err
	}
	return nil
}

// Me returns the signed-in user.
func (s *Service) Me(ctx context.Context) (*User, error) {
	return client.Do[*User](ctx, s.client, client.Request{Path: "/me"})
}

// UploadAvatar replaces the signed-in user's avatar.
func (s *Service) UploadAvatar(ctx context.Context, name string, content io.Reader) (*Asset, error) {
	return decodeUpload[*Asset](s.client.Upload(ctx, "/me/avatar", nil,
		client.File{Field: "file", Name: name, Content: content, ContentType: contentTypeOf(name)}))
}

// UploadCover sets a post's cover image.
func (s *Service) UploadCover(ctx context.Context, postID int64, name string, content io.Reader) (*Asset, error) {
	return decodeUpload[*Asset](s.client.Upload(ctx, postPath(postID)+"/cover", nil,
		client.File{Field: "file", Name: name, Content: content, ContentType: contentTypeOf(name)}))
}

// UploadAssets uploads files to the media library.
func (s *Service) UploadAssets(ctx context.Context, files ...client.File) ([]Asset, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to upload")
	}
	for i := range files {
		if files[i].Field == "" {
			files[i].Field = "files"
		}
		if files[i].ContentType == "" {
			files[i].ContentType = contentTypeOf(files[i].Name)
		}
	}
	return decodeUpload[[]Asset](s.client.Upload(ctx, "/assets", nil, files...))
}

func decodeUpload[T any](payload json.RawMessage, err error) (T, error) {
	var out T
	if err != nil || len(payload) == 0 {
		return out, err
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}

func postPath(id int64) string {
	return "/posts/" + strconv.FormatInt(id, 10)
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
