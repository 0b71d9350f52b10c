// util/helper/api.go
package helper_util

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	relay_errors "github.com/dev-mohitbeniwal/relay/errors"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	// Elasticsearch refuses searches where from+size passes index.max_result_window
	MaxResultWindow = 10000
)

// GetPaginationParams reads limit and offset from the query string. A missing
// or zero limit becomes DefaultPageLimit and a larger one is clamped to
// MaxPageLimit. Pages ending past MaxResultWindow are rejected.
func GetPaginationParams(c *gin.Context) (limit int, offset int, err error) {
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultPageLimit)))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: limit: %v", relay_errors.ErrInvalidPagination, err)
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: offset: %v", relay_errors.ErrInvalidPagination, err)
	}
	if limit < 0 || offset < 0 {
		return 0, 0, fmt.Errorf("%w: negative limit or offset", relay_errors.ErrInvalidPagination)
	}

	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset > MaxResultWindow-limit {
		return 0, 0, fmt.Errorf("%w: offset %d is past the last page", relay_errors.ErrInvalidPagination, offset)
	}
	return limit, offset, nil
}
