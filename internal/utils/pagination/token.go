package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeMultiFieldToken creates a URL safe token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// EncodeOffsetToken points at position offset of a listing, where entryID was found when the token was issued.
func EncodeOffsetToken(offset int, entryID string) string {
	return EncodeMultiFieldToken(strconv.Itoa(offset), entryID)
}

// DecodeOffsetToken is the inverse of EncodeOffsetToken.
func DecodeOffsetToken(token string) (int, string, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, "", err
	}
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid pagination token format (split)")
	}
	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return 0, "", fmt.Errorf("invalid pagination token format (offset parse): %q", parts[0])
	}
	return offset, parts[1], nil
}

// Page returns at most limit items starting at the position described by
// token ("" starts at the beginning) and the token for the following page,
// which is empty on the last page. If the anchored item moved because earlier
// items were inserted or deleted, the page resumes at its new position.
func Page[T any](items []T, limit int, token string, idOf func(T) string) ([]T, string, error) {
	start := 0
	if token != "" {
		offset, anchorID, err := DecodeOffsetToken(token)
		if err != nil {
			return nil, "", err
		}
		start = offset
		if start >= len(items) || idOf(items[start]) != anchorID {
			for i, item := range items {
				if idOf(item) == anchorID {
					start = i
					break
				}
			}
		}
	}
	if start > len(items) {
		start = len(items)
	}

	if limit <= 0 {
		return items[start:], "", nil
	}

	end := start + limit
	if end >= len(items) {
		return items[start:], "", nil
	}
	return items[start:end], EncodeOffsetToken(end, idOf(items[end])), nil
}
