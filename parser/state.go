package parser

// State is the parser position in the command grammar.
type State int

const (
	// StateInit expects D.
	StateInit State = iota
	// StateIdle expects D, R, W, ; or end of input.
	StateIdle
	// StateRead expects the read length.
	StateRead
	// StateWrite expects the first byte of a write.
	StateWrite
	// StateWriting expects another byte, D, R, W, ; or end of input.
	StateWriting
	// StateAddr expects the device address.
	StateAddr
	// StateBus expects the bus number.
	StateBus
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIdle:
		return "IDLE"
	case StateRead:
		return "READ"
	case StateWrite:
		return "WRITE"
	case StateWriting:
		return "WRITING"
	case StateAddr:
		return "ADDR"
	case StateBus:
		return "BUS"
	}
	return "UNKNOWN"
}
