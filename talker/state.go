package talker

// DefaultMessage is the text published until the first mutation arrives.
const DefaultMessage = "Written By Aman Virmani"

// MessageState is the text embedded in every status record.
//
// The emitter and the mutation handler share one *MessageState. Every Write publishes a
// freshly allocated string through an atomic pointer swap, so Read returns either the
// previous value or the new one, never a mixture.
type MessageState struct {
	text *AtomicValue[string]
}

func NewMessageState(initial string) *MessageState {
	return &MessageState{text: NewAtomicValue(initial)}
}

// Read returns the most recently committed text.
func (s *MessageState) Read() string {
	text, _ := s.text.Get()
	return text
}

// Write replaces the text.
func (s *MessageState) Write(text string) {
	s.text.Set(text)
}
