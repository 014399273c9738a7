package realtime

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/petrhn/arena-server/internal/testutil"
)

type RelaySuite struct {
	suite.Suite
	registry *Registry
	relay    *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.registry = NewRegistry(testutil.NopLogger())
	s.relay = NewRelay(s.registry, testutil.NopLogger())
}

// drain collects the messages queued on a session without blocking
func drain(session *Session) [][]byte {
	var messages [][]byte
	for {
		select {
		case message := <-session.send:
			messages = append(messages, message)
		default:
			return messages
		}
	}
}

func (s *RelaySuite) TestRelayDeliversToRoomExceptSender() {
	a, b, c := NewSession(nil, ""), NewSession(nil, ""), NewSession(nil, "")
	s.registry.Join(a, "r1")
	s.registry.Join(b, "r1")
	s.registry.Join(c, "r1")

	payload := []byte(`{"type":"action","move":"left"}`)
	s.relay.Relay(a, payload)

	s.Empty(drain(a))
	bMessages, cMessages := drain(b), drain(c)
	s.Require().Len(bMessages, 1)
	s.Require().Len(cMessages, 1)
	s.Equal(payload, bMessages[0])
	s.Equal(payload, cMessages[0])
}

func (s *RelaySuite) TestRelayDoesNotCrossRooms() {
	a, b := NewSession(nil, ""), NewSession(nil, "")
	s.registry.Join(a, "r1")
	s.registry.Join(b, "r2")

	s.relay.Relay(a, []byte("hello"))

	s.Empty(drain(b))
}

func (s *RelaySuite) TestRelayFromUnjoinedSenderIsSilentNoOp() {
	a, b := NewSession(nil, ""), NewSession(nil, "")
	s.registry.Join(b, "r1")

	s.relay.Relay(a, []byte(`{"type":"action","move":"left"}`))

	s.Empty(drain(b))
}

func (s *RelaySuite) TestRelaySkipsClosedRecipient() {
	a, b, c := NewSession(nil, ""), NewSession(nil, ""), NewSession(nil, "")
	s.registry.Join(a, "r1")
	s.registry.Join(b, "r1")
	s.registry.Join(c, "r1")

	b.Close()
	s.relay.Relay(a, []byte("payload"))

	// The closed recipient never blocks delivery to the rest
	s.Require().Len(drain(c), 1)
}

func (s *RelaySuite) TestRelayClosesRecipientOnQueueOverflow() {
	a, b := NewSession(nil, ""), NewSession(nil, "")
	s.registry.Join(a, "r1")
	s.registry.Join(b, "r1")

	for i := 0; i <= sendBufferSize; i++ {
		s.relay.Relay(a, []byte("spam"))
	}

	s.Equal(sendClosed, b.trySend([]byte("x")))
}

func (s *RelaySuite) TestRelayToSingleMemberRoomDeliversNothing() {
	a := NewSession(nil, "")
	s.registry.Join(a, "r1")

	s.relay.Relay(a, []byte("solo"))

	s.Empty(drain(a))
}
