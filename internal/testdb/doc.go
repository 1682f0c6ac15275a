// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Tests call Open, which skips the test unless DATABASE_URL (or
// LEXIS_TEST_DB_URL) names a reachable database, applies the embedded
// migrations once per process, and returns a shared connection. WithTx
// then runs the test body inside a transaction that is always rolled back:
//
//	func TestSomething(t *testing.T) {
//		db := testdb.Open(t)
//		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//			cards := postgres.NewPostgresCardStore(tx, nil)
//			...
//		})
//	}
package testdb
