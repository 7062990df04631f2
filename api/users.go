package api

import (
	"context"
	"net/http"
	"strings"
)

// Leaderboard returns the ranking. When a session exists the authenticated variant is
// used and Position holds the caller's rank.
func (c *Client) Leaderboard(ctx context.Context) (Leaderboard, error) {
	if sess, ok := c.manager.Session(); ok {
		return getJSON[Leaderboard](ctx, c, true, "usersauth", sess.UserID)
	}
	return getJSON[Leaderboard](ctx, c, false, "users")
}

// Profile returns the statistics of the logged-in user.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	userID, err := requireSession(c.manager)
	if err != nil {
		return Profile{}, err
	}
	return getJSON[Profile](ctx, c, true, "users", userID)
}

// UpdateAvatar stores location as the avatar of the logged-in user and makes it the
// current avatar once the backend accepted it.
func (c *Client) UpdateAvatar(ctx context.Context, location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return ErrInvalidArgument
	}
	userID, err := requireSession(c.manager)
	if err != nil {
		return err
	}
	if _, err := c.exec(ctx, http.MethodPost, true, rawBody(location), "updateavatar", userID); err != nil {
		return err
	}
	return c.manager.SetAvatarURL(location)
}
