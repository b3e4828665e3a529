package talker

import "fmt"

type ServiceTopics struct {
	service string
}

func NewTopics(service string) *ServiceTopics {
	return &ServiceTopics{service: service}
}

func (t *ServiceTopics) Chatter() string   { return "chatter" }
func (t *ServiceTopics) Transform() string { return "tf" }

// ModifyMessage is the operation name remote callers use to replace the talker text.
func (t *ServiceTopics) ModifyMessage() string { return "modifyTalkerMessage" }

func (t *ServiceTopics) SendStatus() string { return fmt.Sprintf("service.%s.status", t.service) }
func (t *ServiceTopics) RequestStatus() string {
	return fmt.Sprintf("service.%s.request_status", t.service)
}
