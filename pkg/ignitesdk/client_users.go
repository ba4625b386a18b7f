package ignitesdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// SignUp creates a new account. It does not sign in.
func (c *Client) SignUp(ctx context.Context, in SignUpRequest) error {
	req, err := newRequest(http.MethodPost, "/users", in, nil)
	if err != nil {
		return err
	}
	req.anonymous = true

	return c.doJSON(ctx, req, nil)
}

// UpdateProfile updates the signed in user's name and, optionally, password.
func (c *Client) UpdateProfile(ctx context.Context, in UpdateProfileRequest) error {
	req, err := newRequest(http.MethodPut, "/users", in, nil)
	if err != nil {
		return err
	}

	return c.doJSON(ctx, req, nil)
}

// UploadAvatar replaces the signed in user's avatar with the image read from
// r and returns the updated user.
func (c *Client) UploadAvatar(ctx context.Context, filename, contentType string, r io.Reader) (*User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := newRequest(http.MethodPatch, "/users/avatar", buf.Bytes(), map[string]string{
		"Content-Type": mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var out User
	if err := c.doJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvatarURL returns the public URL of an avatar file name.
func (c *Client) AvatarURL(avatar string) string {
	if avatar == "" {
		return ""
	}
	return c.url("/avatar/" + avatar)
}
