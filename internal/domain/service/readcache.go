package service

import (
	"context"

	"myko-bridge/internal/domain/model"
	"myko-bridge/internal/ports"
)

// stateReader fronts the Myko API for one device. The backend can return
// stale data right after a write, so the echoed write response stands in for
// exactly one following read.
//
// It is not safe for concurrent use. Two writes before a read leave only the
// second echo cached; callers serialize access per device.
type stateReader struct {
	port    ports.MykoPort
	childID string

	cached       *model.VendorState
	skipNextRead bool
}

func newStateReader(port ports.MykoPort, childID string) *stateReader {
	return &stateReader{port: port, childID: childID}
}

// Read returns the device state. suppressed is true when the cached write
// echo was served instead of calling the API.
func (r *stateReader) Read(ctx context.Context) (doc model.VendorState, suppressed bool, err error) {
	if r.skipNextRead && r.cached != nil {
		r.skipNextRead = false
		return *r.cached, true, nil
	}
	r.skipNextRead = false
	doc, err = r.port.ReadState(ctx, r.childID)
	return doc, false, err
}

func (r *stateReader) Write(ctx context.Context, delta model.VendorState) (model.VendorState, error) {
	echo, err := r.port.WriteState(ctx, r.childID, delta)
	if err != nil {
		return model.VendorState{}, err
	}
	r.remember(echo)
	return echo, nil
}

func (r *stateReader) WriteField(ctx context.Context, cmd model.FieldCommand) (model.VendorState, error) {
	echo, err := r.port.WriteField(ctx, r.childID, cmd)
	if err != nil {
		return model.VendorState{}, err
	}
	r.remember(echo)
	return echo, nil
}

func (r *stateReader) remember(echo model.VendorState) {
	r.cached = &echo
	r.skipNextRead = true
}
