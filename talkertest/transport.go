package talkertest

import (
	"context"
	"sync"

	"github.com/flux-agi/talker_go/talker"
)

// Transport records emissions in memory.
type Transport struct {
	mu         sync.Mutex
	records    []talker.StatusRecord
	transforms []talker.TransformSnapshot
	err        error
}

func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) Publish(_ context.Context, record talker.StatusRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}

	t.records = append(t.records, record)

	return nil
}

func (t *Transport) BroadcastTransform(_ context.Context, snapshot talker.TransformSnapshot) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return t.err
	}

	t.transforms = append(t.transforms, snapshot)

	return nil
}

// SetErr makes subsequent sends fail with err, or succeed again when err is nil.
func (t *Transport) SetErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.err = err
}

func (t *Transport) Records() []talker.StatusRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]talker.StatusRecord(nil), t.records...)
}

func (t *Transport) Transforms() []talker.TransformSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]talker.TransformSnapshot(nil), t.transforms...)
}
