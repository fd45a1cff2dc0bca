package common

import (
	"fmt"
	"net/http"
	"strconv"
)

// ListParams carries the cursor pagination inputs shared by listing
// endpoints. A zero limit asks the storage layer for its default page
// size; bounds are applied there as well.
type ListParams struct {
	Limit  int    `json:"limit"`
	Cursor string `json:"cursor,omitempty"`
}

// ExtractListParams reads the limit and cursor query parameters from a
// request. The limit must be a non-negative integer when present.
func ExtractListParams(r *http.Request) (ListParams, error) {
	params := ListParams{
		Cursor: r.URL.Query().Get("cursor"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return params, fmt.Errorf("invalid limit parameter %q", raw)
		}
		params.Limit = limit
	}

	return params, nil
}
