package model

import (
	"fmt"
	"strings"
)

// DataIntegrityError reports a referential mismatch between orders and
// deliveries, or an order referencing a supplier missing from master data.
// It is fatal for the run: no derived table may be published once raised.
type DataIntegrityError struct {
	// Table names the side of the relation where the orphans were found.
	Table string
	// IDs lists the offending identifiers (po_ids or supplier_ids).
	IDs []string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation in %s: orphaned ids [%s]",
		e.Table, strings.Join(e.IDs, ", "))
}

// DomainRangeError reports an input value outside its declared domain, e.g.
// a non-positive ordered quantity or a financial risk score outside 0-100.
type DomainRangeError struct {
	SupplierID string
	Field      string
	Value      string
}

func (e *DomainRangeError) Error() string {
	return fmt.Sprintf("domain range violation for supplier %s: %s = %s",
		e.SupplierID, e.Field, e.Value)
}
