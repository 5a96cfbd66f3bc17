package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/openmusic/openmusic/internal/model"
)

// likeEscaper escapes LIKE wildcards so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchUsersByUsername returns users whose username starts with prefix,
// case-insensitively. An empty prefix matches every user.
func (r *Repository) SearchUsersByUsername(ctx context.Context, prefix string, limit int) ([]model.UserSummary, error) {
	query := `
		SELECT id, username, fullname
		FROM users
		WHERE LOWER(username) LIKE LOWER($1) || '%' ESCAPE '\'
		ORDER BY username ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, likeEscaper.Replace(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := make([]model.UserSummary, 0)
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Fullname); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
