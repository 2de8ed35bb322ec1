package sessiongate

// RecordIdentity adapts an IdentityRecord into the Identity interface.
type RecordIdentity struct {
	record *IdentityRecord
}

// NewIdentityFromRecord returns an Identity adapter for the provided record.
func NewIdentityFromRecord(record *IdentityRecord) Identity {
	if record == nil {
		return nil
	}
	return RecordIdentity{record: record}
}

// ID returns the identity's id as a string.
func (r RecordIdentity) ID() string {
	if r.record == nil {
		return ""
	}
	return r.record.ID.String()
}

// Email returns the identity's email address.
func (r RecordIdentity) Email() string {
	if r.record == nil {
		return ""
	}
	return r.record.Email
}

// DisplayName returns the identity's display name, empty when never set.
func (r RecordIdentity) DisplayName() string {
	if r.record == nil {
		return ""
	}
	return r.record.DisplayName
}

// StaticIdentity is a plain Identity value, used by token verification and
// by callers that hold provider claims rather than a stored record.
type StaticIdentity struct {
	UID   string
	Mail  string
	Name  string
}

func (s StaticIdentity) ID() string          { return s.UID }
func (s StaticIdentity) Email() string       { return s.Mail }
func (s StaticIdentity) DisplayName() string { return s.Name }
