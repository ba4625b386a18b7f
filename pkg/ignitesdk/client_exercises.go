package ignitesdk

import (
	"context"
	"net/http"
	"net/url"
)

// Groups lists the muscle groups exercises are filed under.
func (c *Client) Groups(ctx context.Context) ([]string, error) {
	req, err := newRequest(http.MethodGet, "/groups", nil, nil)
	if err != nil {
		return nil, err
	}

	var groups []string
	if err := c.doJSON(ctx, req, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ExercisesByGroup lists the exercises of one muscle group.
func (c *Client) ExercisesByGroup(ctx context.Context, group string) ([]Exercise, error) {
	req, err := newRequest(http.MethodGet, "/exercises/bygroup/"+url.PathEscape(group), nil, nil)
	if err != nil {
		return nil, err
	}

	var exercises []Exercise
	if err := c.doJSON(ctx, req, &exercises); err != nil {
		return nil, err
	}
	return exercises, nil
}

// Exercise fetches a single exercise.
func (c *Client) Exercise(ctx context.Context, id string) (*Exercise, error) {
	req, err := newRequest(http.MethodGet, "/exercises/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var exercise Exercise
	if err := c.doJSON(ctx, req, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

// ExerciseDemoURL returns the public URL of an exercise's demo animation.
func (c *Client) ExerciseDemoURL(e Exercise) string {
	return c.url("/exercise/demo/" + e.Demo)
}

// ExerciseThumbURL returns the public URL of an exercise's thumbnail.
func (c *Client) ExerciseThumbURL(e Exercise) string {
	return c.url("/exercise/thumb/" + e.Thumb)
}
