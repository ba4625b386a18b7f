package ignitesdk

import (
	"context"
	"net/http"
)

// History lists the signed in user's completed exercises grouped by day,
// most recent day first.
func (c *Client) History(ctx context.Context) ([]HistoryDay, error) {
	req, err := newRequest(http.MethodGet, "/history", nil, nil)
	if err != nil {
		return nil, err
	}

	var days []HistoryDay
	if err := c.doJSON(ctx, req, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// RegisterHistory marks an exercise as completed now.
func (c *Client) RegisterHistory(ctx context.Context, exerciseID string) error {
	req, err := newRequest(http.MethodPost, "/history", RegisterHistoryRequest{
		ExerciseID: exerciseID,
	}, nil)
	if err != nil {
		return err
	}

	return c.doJSON(ctx, req, nil)
}
