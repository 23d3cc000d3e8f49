package types

// GuestStatus represents the current state of a guest as reported by the
// hypervisor.
type GuestStatus string

const (
	GuestStatusRunning GuestStatus = "running"
	GuestStatusStopped GuestStatus = "stopped"
)

// GuestType distinguishes QEMU virtual machines from LXC containers. The
// value is also the path segment used in API URLs.
type GuestType string

const (
	GuestTypeQemu GuestType = "qemu"
	GuestTypeLXC  GuestType = "lxc"
)

// Guest represents one virtual machine or container in the cluster
// resource listing.
type Guest struct {
	VMID   int         `json:"vmid"`
	Name   string      `json:"name,omitempty"`
	Node   string      `json:"node"`
	Type   GuestType   `json:"type"`
	Status GuestStatus `json:"status"`
	CPUs   int         `json:"maxcpu,omitempty"`
	MaxMem int64       `json:"maxmem,omitempty"`
	Uptime int64       `json:"uptime,omitempty"`
}

// GuestState is the response body of a status/current call.
type GuestState struct {
	VMID   int         `json:"vmid"`
	Name   string      `json:"name,omitempty"`
	Status GuestStatus `json:"status"`
	Uptime int64       `json:"uptime,omitempty"`
}

// Running reports whether the guest is in the running state.
func (s GuestState) Running() bool {
	return s.Status == GuestStatusRunning
}
