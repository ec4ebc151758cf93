package ports

// PasswordHasher is the one-way credential hashing capability. Hash output is
// opaque and salted; plaintext never leaves the call.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}
