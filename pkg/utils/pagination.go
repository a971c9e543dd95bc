package utils

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// GetPaginationParams extracts limit/offset from the request, clamping the
// limit to maxLimit.
func GetPaginationParams(c echo.Context, defaultLimit, maxLimit int) PaginationParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	return PaginationParams{
		Limit:  limit,
		Offset: offset,
	}
}

// DateRange is an optional [From, To] window; zero values are open ends.
type DateRange struct {
	From time.Time
	To   time.Time
}

// GetDateRange reads RFC3339 (or YYYY-MM-DD) "from" and "to" query params.
// A date-only "to" covers the whole day.
func GetDateRange(c echo.Context) (DateRange, error) {
	var r DateRange
	var err error
	if v := c.QueryParam("from"); v != "" {
		if r.From, err = parseTime(v, false); err != nil {
			return r, err
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if r.To, err = parseTime(v, true); err != nil {
			return r, err
		}
	}
	return r, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
