package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ledger-indexer/internal/store"
)

// PaginationQueryParams holds the limit/offset query parameters shared by list endpoints
type PaginationQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ParsePaginationQuery parses limit and offset
func ParsePaginationQuery(c *gin.Context) (*PaginationQueryParams, error) {
	var params PaginationQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limits
	if params.Limit > store.MAX_PAGE_LIMIT {
		params.Limit = store.MAX_PAGE_LIMIT
	}

	return &params, nil
}

// Validate validates the pagination parameters
func (p *PaginationQueryParams) Validate() error {
	if p.Limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
	if p.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}
