package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/deppfellow/carsales/internal/model"
)

const salesFrom = `
FROM listings l
JOIN models md ON md.model_id = l.model_id
JOIN manufacturers mfr ON mfr.manufacturer_id = md.manufacturer_id
JOIN fuel_types ft ON ft.fuel_type_id = l.fuel_type_id`

const saleColumns = `
SELECT
	l.listing_id,
	mfr.name,
	md.name,
	CAST(l.engine_size AS NUMERIC(10,2)),
	ft.name,
	l.year,
	l.mileage,
	CAST(l.price AS NUMERIC(12,2))`

const defaultSortKey = "id"

// sortColumns maps the accepted sort keys to join columns. It is never
// written after package initialisation.
var sortColumns = map[string]string{
	"id":           "l.listing_id",
	"manufacturer": "mfr.name",
	"model":        "md.name",
	"enginesize":   "l.engine_size",
	"fueltype":     "ft.name",
	"year":         "l.year",
	"mileage":      "l.mileage",
	"price":        "l.price",
}

// likeEscaper makes caller text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// salesQuery is the count and page statement pair for one filter.
type salesQuery struct {
	countSQL  string
	countArgs []any
	dataSQL   string
	dataArgs  []any
	page      int
	pageSize  int
	sortBy    string
	sortDir   string
}

// whereClause folds optional predicates into conditions and bound args.
// Conditions only ever contain column names and $n placeholders.
type whereClause struct {
	conds []string
	args  []any
}

// add binds arg and appends cond with its placeholder substituted for %s.
func (w *whereClause) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, w.placeholder(len(w.args))))
}

func (w *whereClause) placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (w *whereClause) contains(column, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.add(column+" ILIKE %s", "%"+likeEscaper.Replace(value)+"%")
}

func addIf[T any](w *whereClause, cond string, value *T) {
	if value != nil {
		w.add(cond, *value)
	}
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(w.conds, "\n  AND ")
}

// resolveSort maps a caller sort key and direction onto the allow-list.
// Unknown keys fall back to id, anything but "desc" is ascending.
func resolveSort(sortBy, sortDir string) (column, direction string) {
	column, ok := sortColumns[strings.ToLower(sortBy)]
	if !ok {
		column = sortColumns[defaultSortKey]
	}

	direction = "ASC"
	if strings.EqualFold(sortDir, "desc") {
		direction = "DESC"
	}
	return column, direction
}

// resolvePage floors page at 1 and clamps pageSize into [1, MaxPageSize].
// Page is capped so that (page-1)*pageSize cannot overflow.
func resolvePage(page, pageSize int) (int, int) {
	pageSize = min(max(pageSize, 1), model.MaxPageSize)
	return min(max(1, page), math.MaxInt/pageSize), pageSize
}

// buildSalesQuery compiles f into parameterised count and page statements.
func buildSalesQuery(f model.SalesFilter) salesQuery {
	w := &whereClause{}

	w.contains("mfr.name", f.Manufacturer)
	w.contains("md.name", f.Model)
	w.contains("ft.name", f.FuelType)
	addIf(w, "l.year = %s", f.Year)
	addIf(w, "l.engine_size >= %s", f.EngineSizeMin)
	addIf(w, "l.engine_size <= %s", f.EngineSizeMax)
	addIf(w, "l.mileage >= %s", f.MileageMin)
	addIf(w, "l.mileage <= %s", f.MileageMax)
	addIf(w, "l.price >= %s", f.PriceMin)
	addIf(w, "l.price <= %s", f.PriceMax)

	where := w.String()
	page, pageSize := resolvePage(f.Page, f.PageSize)
	sortColumn, sortDir := resolveSort(f.SortBy, f.SortDir)

	orderBy := sortColumn + " " + sortDir
	if sortColumn != sortColumns[defaultSortKey] {
		orderBy += ", l.listing_id ASC"
	}

	n := len(w.args)
	dataArgs := make([]any, 0, n+2)
	dataArgs = append(dataArgs, w.args...)
	dataArgs = append(dataArgs, pageSize, (page-1)*pageSize)

	return salesQuery{
		countSQL:  "SELECT COUNT(*)" + salesFrom + where,
		countArgs: w.args,
		dataSQL: saleColumns + salesFrom + where +
			"\nORDER BY " + orderBy +
			"\nLIMIT " + w.placeholder(n+1) + " OFFSET " + w.placeholder(n+2),
		dataArgs: dataArgs,
		page:     page,
		pageSize: pageSize,
		sortBy:   sortColumn,
		sortDir:  sortDir,
	}
}
