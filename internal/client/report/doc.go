// Package report renders saved inspections for people: a plain text report
// for the terminal and an XLSX workbook for export.
package report
