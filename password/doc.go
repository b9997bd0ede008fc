// Package password provides argon2id hashing and verification in PHC
// string form, plus a bounded worker pool for running derivations off
// request-handling goroutines.
package password
