// Package badger implements storage.Store on an embedded BadgerDB database.
//
// Records are serialized with MUS and stored under prefixed keys:
//
//	pagrec:<id>  pages
//	conrec:<id>  content records
//	ledrec:<id>  ledger entries
package badger
