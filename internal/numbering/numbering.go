// Package numbering assigns sequential, human-readable document numbers.
//
// Invoices and quotes share one counter per calendar year, formatted
// "001/2025". Purchase orders carry their own counter, formatted
// "BC-001/2025". A number is unique within its (kind, year) scope and never
// changes once assigned.
package numbering

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"facturo/m/domain"
)

const poPrefix = "BC-"

// ScopeTypes returns the document types that share a counter with docType.
func ScopeTypes(docType string) []string {
	if docType == domain.DocPurchaseOrder {
		return []string{domain.DocPurchaseOrder}
	}
	return []string{domain.DocInvoice, domain.DocQuote}
}

// Format renders a sequence number in the canonical scheme for docType.
func Format(docType string, seq, year int) string {
	if docType == domain.DocPurchaseOrder {
		return fmt.Sprintf("%s%03d/%d", poPrefix, seq, year)
	}
	return fmt.Sprintf("%03d/%d", seq, year)
}

// Parse extracts the sequence and year from a stored number. Numbers in a
// foreign or legacy format report ok=false and are ignored when computing
// the next sequence.
func Parse(docType, number string) (seq, year int, ok bool) {
	if docType == domain.DocPurchaseOrder {
		rest, found := strings.CutPrefix(number, poPrefix)
		if !found {
			return 0, 0, false
		}
		number = rest
	}
	seqPart, yearPart, found := strings.Cut(number, "/")
	if !found {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(seqPart)
	if err != nil || seq <= 0 {
		return 0, 0, false
	}
	year, err = strconv.Atoi(yearPart)
	if err != nil || len(yearPart) != 4 {
		return 0, 0, false
	}
	return seq, year, true
}

// Next computes the next number for docType in the given year. It must run on
// the same transaction that inserts the document so that two concurrent
// creations cannot read the same maximum.
func Next(tx *sqlx.Tx, docType string, year int) (string, error) {
	query, args, err := sqlx.In(`SELECT number FROM documents WHERE doc_type IN (?)`, ScopeTypes(docType))
	if err != nil {
		return "", err
	}
	var numbers []string
	if err := tx.Select(&numbers, tx.Rebind(query), args...); err != nil {
		return "", err
	}

	max := 0
	for _, number := range numbers {
		seq, numYear, ok := Parse(docType, number)
		if ok && numYear == year && seq > max {
			max = seq
		}
	}
	return Format(docType, max+1, year), nil
}
