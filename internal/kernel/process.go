package kernel

import "github.com/GriffinCanCode/hlekernel/internal/shared/id"

// Process is the emulated process a request originates from. Only the parts
// session establishment consumes are modelled: a name and a resource limit.
type Process struct {
	id    id.ProcessID
	name  string
	limit *ResourceLimit
}

// NewProcess creates a process charged against limit. A nil limit never
// refuses a reservation.
func NewProcess(name string, limit *ResourceLimit) *Process {
	return &Process{
		id:    id.NewProcessID(),
		name:  name,
		limit: limit,
	}
}

// ID returns the process identifier
func (p *Process) ID() id.ProcessID { return p.id }

// Name returns the process name
func (p *Process) Name() string {
	if p == nil {
		return ""
	}
	return p.name
}

// ResourceLimit returns the limit sessions are reserved against
func (p *Process) ResourceLimit() *ResourceLimit {
	if p == nil {
		return nil
	}
	return p.limit
}
