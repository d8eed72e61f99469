// Package repository handles all interactions with the database.
//
// It contains the raw SQL for car sale listings: the filtered, sorted and
// paginated read query builder, the get-or-create resolver for
// manufacturer, model and fuel type names, and the transactional write
// orchestration that ties them together.
package repository
