package watcher

import "strings"

// Op is an event mask. Bit values follow the Linux inotify ABI so the inotify
// backend can pass kernel masks through unchanged.
type Op uint32

const (
	Access        Op = 0x1
	Modify        Op = 0x2
	Attrib        Op = 0x4
	CloseWrite    Op = 0x8
	CloseNoWrite  Op = 0x10
	Open          Op = 0x20
	MovedFrom     Op = 0x40
	MovedTo       Op = 0x80
	Create        Op = 0x100
	Delete        Op = 0x200
	DeleteSelf    Op = 0x400
	MoveSelf      Op = 0x800
	Unmount       Op = 0x2000
	QueueOverflow Op = 0x4000
	Ignored       Op = 0x8000
	IsDir         Op = 0x40000000
)

// Subscribed is the set of changes that can trigger a build. Pure access
// (open, read, close without write, attribute change) is not part of it.
const Subscribed = CloseWrite | Create | Delete | Modify | MovedFrom | MovedTo | MoveSelf

var opNames = []struct {
	op   Op
	name string
}{
	{Access, "IN_ACCESS"},
	{Modify, "IN_MODIFY"},
	{Attrib, "IN_ATTRIB"},
	{CloseWrite, "IN_CLOSE_WRITE"},
	{CloseNoWrite, "IN_CLOSE_NOWRITE"},
	{Open, "IN_OPEN"},
	{MovedFrom, "IN_MOVED_FROM"},
	{MovedTo, "IN_MOVED_TO"},
	{Create, "IN_CREATE"},
	{Delete, "IN_DELETE"},
	{DeleteSelf, "IN_DELETE_SELF"},
	{MoveSelf, "IN_MOVE_SELF"},
	{Unmount, "IN_UNMOUNT"},
	{QueueOverflow, "IN_Q_OVERFLOW"},
	{Ignored, "IN_IGNORED"},
	{IsDir, "IN_ISDIR"},
}

func (o Op) Has(h Op) bool {
	return o&h != 0
}

// Names lists the flags set in o, in kernel bit order.
func (o Op) Names() []string {
	names := make([]string, 0, 2)
	for _, n := range opNames {
		if o.Has(n.op) {
			names = append(names, n.name)
		}
	}
	return names
}

func (o Op) String() string {
	if o == 0 {
		return "[no events]"
	}
	return strings.Join(o.Names(), ", ")
}
