package domain

const topicPrefix = "/topic/public/"

// Topic is the destination bound for a partner. Other systems subscribe to
// the same names, the prefix must not change.
func Topic(partnerID UserID) string {
	return topicPrefix + partnerID.String()
}

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Session is one chat binding. Records are filled in as the directory answers.
type Session struct {
	Partner       Partner
	Topic         string
	LocalUser     *User
	PartnerUser   *User
	EverConnected bool
}

func NewSession(partner Partner) *Session {
	return &Session{Partner: partner, Topic: Topic(partner.ID)}
}

// Peer is the best known record of the partner.
func (s *Session) Peer() User {
	if s.PartnerUser != nil {
		return *s.PartnerUser
	}
	return s.Partner.AsUser()
}
