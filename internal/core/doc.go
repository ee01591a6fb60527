// Package core provides the view logic of the product table.
//
// This package holds everything between the fetched product list and the
// renderer, independent of HTTP. It can be used by web handlers or tests
// without modification.
//
// # View State
//
// Each browser session owns a [State]: search text, price bound inputs,
// sort key and order, the selection set and the detail panel. A State is
// only changed by dispatching a named [Action] through [Reduce]:
//
//	st = core.Reduce(st, core.SearchChanged{Query: "ban"}, products)
//	st = core.Reduce(st, core.RowToggled{ID: 2}, products)
//
// Reduce is total and never mutates its input. Selection ids are always a
// subset of the loaded product ids.
//
// # View Pipeline
//
// [Pipeline.Apply] is a pure function from (raw products, State) to the
// rows to display: name filter, then inclusive price filter, then a
// stable locale-aware sort. It never reorders the raw list.
//
// # Sessions
//
// [Sessions] stores one State per browser and serializes intents per
// session. The session janitor evicts idle sessions.
//
// # Export
//
// [Service.ExportSelected] projects the selected products in raw-list
// order and writes them as an XLSX workbook through package export. The
// number of concurrent exports is bounded by an [ExportLimiter].
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]:
//
//   - FETCH001-FETCH004: catalog errors
//   - EXP001-EXP003: export errors
//   - REQ001-REQ006: request errors
//   - RATE001: rate limiting
package core
