package api

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"salesdash/internal/engine"
	"salesdash/internal/models"
)

// parseConstraints starts from the store's full-selection defaults and narrows
// with the query. A store/category key that is present but blank selects
// nothing, which is different from leaving the key out.
func parseConstraints(q url.Values, store *engine.RecordStore) (models.FilterConstraints, error) {
	c := store.DefaultConstraints()

	var err error
	if c.Start, err = parseDateParam(q, "start", c.Start); err != nil {
		return c, err
	}
	if c.End, err = parseDateParam(q, "end", c.End); err != nil {
		return c, err
	}

	if vals, ok := q["store"]; ok {
		c.Stores = nonBlank(vals)
	}
	if vals, ok := q["category"]; ok {
		c.Categories = nonBlank(vals)
	}

	return c, nil
}

func parseDateParam(q url.Values, key string, fallback time.Time) (time.Time, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return fallback, nil
	}
	t, err := time.Parse(engine.DateLayout, v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errInvalidQuery, key, v)
	}
	return t, nil
}

// nonBlank also splits comma lists, so store=1号店,2号店 works like repeating the key.
func nonBlank(vals []string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
