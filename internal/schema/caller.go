package schema

// Caller is the identity a request is executed on behalf of.
type Caller struct {
	UID uint32
	GID uint32
}

// IsSuperUser reports whether the [Caller] bypasses ownership checks.
func (c Caller) IsSuperUser() bool {
	return c.UID == SuperUser
}
