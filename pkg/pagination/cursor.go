package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor marks a position in descending (created_at, id) order. The id
// breaks ties between rows created in the same nanosecond, so repeated
// pages never skip or repeat rows while no writes happen in between.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

var ErrInvalidCursor = errors.New("invalid cursor")

// Encode renders the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	raw := fmt.Sprintf("%d|%s", c.CreatedAt.UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses a token produced by Encode. An empty token means
// "start from the newest row" and yields (nil, nil).
func Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, nanos), ID: parts[1]}, nil
}

// NormalizeSize clamps a requested page size into [1, max].
func NormalizeSize(size, def, max int) int {
	if size <= 0 {
		return def
	}
	if size > max {
		return max
	}
	return size
}
