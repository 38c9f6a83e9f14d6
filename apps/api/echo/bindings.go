package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shafisadique/school-project-sub003/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=field,-other` ("-" for descending).
func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// Column returns the first requested ordering whose field is in columns, mapped to its DB column; def otherwise.
func (ord *Ordering) Column(columns map[string]string, def core.DBOrdering) core.DBOrdering {
	for _, o := range ord.Orderings {
		if col, ok := columns[o.Field]; ok {
			return core.DBOrdering{Field: col, Ascending: o.Ascending}
		}
	}
	return def
}
