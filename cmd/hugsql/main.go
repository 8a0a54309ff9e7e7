// Command hugsql works with SQL annotation files.
//
// The CLI supports:
//   - validate: Parse annotation files and report every malformed query unit
//   - inspect: Dump parsed queries and their conditional blocks
//   - generate: Produce Go data-access code from the queries
//   - verify: Prepare every query against PostgreSQL
//   - doctor: Run health checks on query files and the database
//
// Commands that only work with files (validate, inspect, generate) do not
// need database access. verify needs --db, database.url or DATABASE_URL;
// doctor uses a database when one is configured.
//
// Usage:
//
//	hugsql [flags] <command>
package main

func main() {
	Execute()
}
