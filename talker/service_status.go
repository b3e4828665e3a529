package talker

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type ServiceStatus string

const (
	// ServiceStatusStarting is the status a service reports before Run connects.
	ServiceStatusStarting  ServiceStatus = "STARTING"
	ServiceStatusConnected ServiceStatus = "CONNECTED"
	ServiceStatusReady     ServiceStatus = "READY"
	ServiceStatusPaused    ServiceStatus = "PAUSED"
	// ServiceStatusError is published when Run gives up after the broker connection was made.
	ServiceStatusError ServiceStatus = "ERROR"
)

// StatusMessage is the payload of the service status topic.
type StatusMessage struct {
	Status      ServiceStatus `json:"status"`
	NodeID      string        `json:"node_id"`
	FrequencyHz int           `json:"frequency_hz,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RegisterStatusHandler answers request_status with the current StatusMessage.
func (s *Service) RegisterStatusHandler() {
	s.router.AddHandler(
		"talker.request_status",
		s.topics.RequestStatus(),
		s.sub,
		s.topics.SendStatus(),
		s.pub,
		func(_ *message.Message) ([]*message.Message, error) {
			msg, err := s.statusMessage(StatusMessage{Status: s.Status()})
			if err != nil {
				return nil, err
			}

			return []*message.Message{msg}, nil
		},
	)
}

// UpdateStatus publishes status and records it as the current one.
func (s *Service) UpdateStatus(status ServiceStatus) error {
	return s.publishStatus(StatusMessage{Status: status})
}

// reportFailure publishes ServiceStatusError carrying cause.
func (s *Service) reportFailure(cause error) error {
	return s.publishStatus(StatusMessage{Status: ServiceStatusError, Error: cause.Error()})
}

func (s *Service) publishStatus(status StatusMessage) error {
	msg, err := s.statusMessage(status)
	if err != nil {
		return err
	}

	if err := s.pub.Publish(s.topics.SendStatus(), msg); err != nil {
		return fmt.Errorf("could not publish status message: %w", err)
	}

	s.status.Set(status.Status)

	return nil
}

func (s *Service) statusMessage(status StatusMessage) (*message.Message, error) {
	status.NodeID = s.nodeID
	if rate, ok := s.rate.Get(); ok {
		status.FrequencyHz = rate.FrequencyHz
	}

	payload, err := json.Marshal(status)
	if err != nil {
		return nil, fmt.Errorf("could not marshal status message: %w", err)
	}

	return message.NewMessage(watermill.NewUUID(), payload), nil
}
