package auth

import "github.com/google/uuid"

// SubjectKind tells which identity a token subject names.
type SubjectKind int

const (
	SubjectInvalid SubjectKind = iota
	SubjectAccountID
	SubjectUsername
)

// Subject is the identity asserted by a token: either an account id or a
// username. Callers branch on Kind.
type Subject struct {
	kind     SubjectKind
	id       uuid.UUID
	username string
}

func AccountIDSubject(id uuid.UUID) Subject {
	return Subject{kind: SubjectAccountID, id: id}
}

func UsernameSubject(username string) Subject {
	if username == "" {
		return Subject{}
	}
	return Subject{kind: SubjectUsername, username: username}
}

// ParseSubject reads a raw sub claim: anything that parses as a UUID is an
// account id, any other non-empty string is a username.
func ParseSubject(raw string) Subject {
	if raw == "" {
		return Subject{}
	}
	if id, err := uuid.Parse(raw); err == nil {
		return AccountIDSubject(id)
	}
	return UsernameSubject(raw)
}

func (s Subject) Kind() SubjectKind { return s.kind }

func (s Subject) IsValid() bool { return s.kind != SubjectInvalid }

// AccountID returns the id when Kind is SubjectAccountID.
func (s Subject) AccountID() (uuid.UUID, bool) {
	return s.id, s.kind == SubjectAccountID
}

// Username returns the username when Kind is SubjectUsername.
func (s Subject) Username() (string, bool) {
	return s.username, s.kind == SubjectUsername
}

// String is the value written into the sub claim.
func (s Subject) String() string {
	switch s.kind {
	case SubjectAccountID:
		return s.id.String()
	case SubjectUsername:
		return s.username
	default:
		return ""
	}
}
