package talker

import "strconv"

// StatusRecord is one chatter message.
type StatusRecord struct {
	Sequence uint64 `json:"sequence"`
	Text     string `json:"text"`
}

// Data returns the "<sequence> <text>" line carried by the chatter topic.
func (r StatusRecord) Data() string {
	return strconv.FormatUint(r.Sequence, 10) + " " + r.Text
}

// ChatterMessage is the wire form of StatusRecord on the chatter topic.
type ChatterMessage struct {
	Data     string `json:"data"`
	Sequence uint64 `json:"sequence"`
	Text     string `json:"text"`
}

func NewChatterMessage(r StatusRecord) ChatterMessage {
	return ChatterMessage{
		Data:     r.Data(),
		Sequence: r.Sequence,
		Text:     r.Text,
	}
}
