// Package password hashes new passwords with Argon2id and verifies stored
// hashes in either Argon2id PHC or bcrypt modular-crypt form.
//
// # Output format
//
// New hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Accounts created before the switch to Argon2id carry bcrypt hashes
// ($2a$, $2b$, $2y$). [Verifier] accepts both and reports through
// [Verifier.NeedsUpgrade] when a stored hash should be replaced on the next
// successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other reelauth package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
