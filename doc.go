// Package gorelay provides bidirectional, cursor-based pagination and nested
// boolean filtering for GORM list queries.
//
// Overview
//
// gorelay is made of three layers that sit in front of a caller-supplied
// *gorm.DB:
//   - Cursor codec: EncodeCursor / DecodeCursor turn the sort-key values of a
//     row (PaginationFilters) into an opaque base64 token and back.
//   - Filter compiler: ApplyFilter compiles a FilterNode tree (leaf, AND group,
//     OR group) into bracketed WHERE conditions with bound parameters.
//   - Paginator: resolves direction and seek operator from the cursors, runs the
//     count, boundary and page queries against clones of the base query, and
//     assembles a PaginationResult with edges and PageInfo.
//
// Key concepts
//   - Keys: the ordered list of qualified columns ("table.column") that defines
//     the total order. The unique key is always part of it.
//   - Seek predicate: the staircase (k1 op v1) OR (k1 = v1 AND k2 op v2) ...
//     built by PaginationQuery.Filter instead of OFFSET.
//   - Boundary rows: the absolute first and last rows of the filtered set, used
//     for PageInfo cursors and the has-next/has-previous flags.
//
// Column identifiers are embedded into SQL text and therefore must come from a
// closed set (see ColumnMapping). Values are always bound parameters.
package gorelay
