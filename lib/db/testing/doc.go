// Package testing holds the conformance suite for db.KVDB engines.
// An engine passes if RunKVDBTests succeeds with a factory returning fresh instances:
//
//	dbtesting.RunKVDBTests(t, "Maple", func() db.KVDB { return maple.NewMapleDB(nil) })
package testing
