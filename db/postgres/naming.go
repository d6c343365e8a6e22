package postgres

import (
	"strings"
	"unicode/utf8"
)

// NamingConvention builds constraint names for schema code:
//
//	ix_<table>_<column0>
//	uq_<table>_<column0>
//	ck_<table>_<constraint>
//	fk_<table>_<column0>_<referred_table>
//	pk_<table>
var NamingConvention = struct {
	Index      func(table string, columns ...string) string
	Unique     func(table string, columns ...string) string
	Check      func(table, constraint string) string
	ForeignKey func(table, column, referredTable string) string
	PrimaryKey func(table string) string
}{
	Index:      func(table string, columns ...string) string { return joinName("ix", table, first(columns)) },
	Unique:     func(table string, columns ...string) string { return joinName("uq", table, first(columns)) },
	Check:      func(table, constraint string) string { return joinName("ck", table, constraint) },
	ForeignKey: func(table, column, referred string) string { return joinName("fk", table, column, referred) },
	PrimaryKey: func(table string) string { return joinName("pk", table) },
}

// maxIdentifierLen is NAMEDATALEN-1 bytes; PG truncates longer identifiers
// at a character boundary.
const maxIdentifierLen = 63

func joinName(prefix string, parts ...string) string {
	name := prefix + "_" + strings.Join(parts, "_")
	if len(name) <= maxIdentifierLen {
		return name
	}
	cut := maxIdentifierLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
