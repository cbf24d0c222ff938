package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField maps an API sort key to its column through a whitelist.
// Unknown or empty keys resolve to the column of defaultField.
func ValidateSortField(sortField string, columns map[string]string, defaultField string) string {
	if column, ok := columns[strings.TrimSpace(sortField)]; ok {
		return column
	}
	return columns[defaultField]
}

// orderBy builds the ORDER BY clause of a listing. The whitelisted column
// comes first, then tieBreak keeps pages stable.
func orderBy(sortField, sortOrder string, columns map[string]string, defaultField, tieBreak string) string {
	clause := ValidateSortField(sortField, columns, defaultField) + " " + ValidateSortOrder(sortOrder)
	if tieBreak != "" {
		clause += ", " + tieBreak
	}
	return clause
}

// ClientSortColumns are the sort keys of the client listing
var ClientSortColumns = map[string]string{
	"name":             "nombre",
	"surname":          "apellido",
	"inscription_date": "fecha_inscripcion",
	"expiration_date":  "fecha_vencimiento",
	"created_at":       "creado_en",
}

// PaymentSortColumns are the sort keys of the payment listings
var PaymentSortColumns = map[string]string{
	"payment_date": "fecha_pago",
	"due_date":     "fecha_vencimiento",
	"amount":       "monto",
	"created_at":   "creado_en",
}
