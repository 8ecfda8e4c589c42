package domain

// PrincipalType discriminates user sessions from admin sessions inside a
// single claim shape.
type PrincipalType string

const (
	PrincipalUser  PrincipalType = "user"
	PrincipalAdmin PrincipalType = "admin"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID     string
	Mobile string
	Role   string
	Type   PrincipalType
}
