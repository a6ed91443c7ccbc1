package domain

// Session identifies the signed-in participant. It is passed explicitly to
// every discovery, bonding and chat operation.
type Session struct {
	Address string
}

func NewSession(address string) Session {
	return Session{Address: NormalizeAddress(address)}
}

func (s Session) Valid() bool {
	return IsValidAddress(s.Address)
}
