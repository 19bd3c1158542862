package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/salescore/internal/domain/shared"
	"github.com/looplab/fsm"
)

// Status machine events
const (
	EventPost         = "post"
	EventTransferFull = "transfer_full"
	EventVoid         = "void"

	// a transferred document whose lines gain outstanding quantity again
	EventReopen       = "reopen"
	EventReopenPosted = "reopen_posted"
)

var statusEvents = fsm.Events{
	{Name: EventPost, Src: []string{string(DocumentStatusOpen)}, Dst: string(DocumentStatusPosted)},
	{Name: EventTransferFull, Src: []string{string(DocumentStatusOpen), string(DocumentStatusPosted)}, Dst: string(DocumentStatusTransferred)},
	{Name: EventReopen, Src: []string{string(DocumentStatusTransferred)}, Dst: string(DocumentStatusOpen)},
	{Name: EventReopenPosted, Src: []string{string(DocumentStatusTransferred)}, Dst: string(DocumentStatusPosted)},
	{Name: EventVoid, Src: []string{string(DocumentStatusOpen), string(DocumentStatusPosted), string(DocumentStatusTransferred)}, Dst: string(DocumentStatusVoid)},
}

// statusMachine builds a machine positioned at the current status
func statusMachine(current DocumentStatus) *fsm.FSM {
	return fsm.NewFSM(string(current), statusEvents, fsm.Callbacks{})
}

// CanFire reports whether the event is allowed from the document's status
func (d *SalesDocument) CanFire(event string) bool {
	return statusMachine(d.Status).Can(event)
}

// fire runs a status transition and stores the resulting status
func (d *SalesDocument) fire(event string) error {
	m := statusMachine(d.Status)
	if err := m.Event(context.Background(), event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return nil
		}
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("cannot %s %s %s in %s status", event, d.DocumentType, d.DocumentNo, d.Status))
	}
	d.Status = DocumentStatus(m.Current())
	return nil
}
