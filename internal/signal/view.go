package signal

import "github.com/DavidWenzler/reAM250-sub000/internal/fault"

// Sender is the producer view of one prepared instance. It writes
// parameters, triggers the signal and reads results back.
//
// The zero Sender refers to no instance.
type Sender struct {
	def        *Definition
	index      int
	generation uint32
}

// Receiver is the consumer view of one instance taken by Check. It reads
// parameters, writes results and finishes the signal.
type Receiver struct {
	def        *Definition
	index      int
	generation uint32
}

// IsZero reports whether s refers to no instance.
func (s Sender) IsZero() bool { return s.def == nil }

// ID returns the instance identity, 1..queueSize.
func (s Sender) ID() uint32 { return uint32(s.index + 1) }

// Name returns the signal name.
func (s Sender) Name() string {
	if s.def == nil {
		return ""
	}
	return s.def.name
}

// Trigger makes the instance visible to consumers and stamps its trigger
// time.
func (s Sender) Trigger() error {
	if s.def == nil {
		return fault.New(fault.SignalIsNotInPreparation, "signal is not in preparation")
	}
	return s.def.trigger(s.index, s.generation)
}

// Cancel gives a prepared but never triggered instance back to Unused. It
// reports whether the instance was returned; views in any other state are
// left alone.
func (s Sender) Cancel() bool {
	if s.def == nil {
		return false
	}
	return s.def.cancel(s.index, s.generation)
}

// HasBeenProcessed reports whether a consumer finished the instance. A view
// whose instance has been recycled reports true.
func (s Sender) HasBeenProcessed() bool {
	if s.def == nil {
		return false
	}
	if !s.def.current(s.index, s.generation) {
		return true
	}
	return s.def.block(s.index)[s.def.processedOffset] != 0
}

func (s Sender) SetInteger(name string, v int64) error {
	b, t, err := s.param(name, fault.SignalDataWriteOutOfRange)
	if err != nil {
		return err
	}
	return encodeInteger(b, t, name, v)
}

func (s Sender) SetDouble(name string, v float64) error {
	b, t, err := s.param(name, fault.SignalDataWriteOutOfRange)
	if err != nil {
		return err
	}
	return encodeDouble(b, t, name, v)
}

func (s Sender) SetBool(name string, v bool) error {
	return s.SetInteger(name, boolToInt(v))
}

// Integer reads a result. Bool results read as 0 or 1.
func (s Sender) Integer(name string) (int64, error) {
	b, t, err := s.result(name)
	if err != nil {
		return 0, err
	}
	return decodeInteger(b, t, name)
}

func (s Sender) Double(name string) (float64, error) {
	b, t, err := s.result(name)
	if err != nil {
		return 0, err
	}
	return decodeDouble(b, t, name)
}

func (s Sender) Bool(name string) (bool, error) {
	v, err := s.Integer(name)
	return v != 0, err
}

func (s Sender) param(name string, stale fault.Code) ([]byte, FieldType, error) {
	if s.def == nil {
		return nil, 0, fault.New(fault.SignalDataMissingMemory, "sender refers to no signal instance")
	}
	return s.def.slot(s.index, s.generation, name, false, stale)
}

func (s Sender) result(name string) ([]byte, FieldType, error) {
	if s.def == nil {
		return nil, 0, fault.New(fault.SignalDataMissingMemory, "sender refers to no signal instance")
	}
	return s.def.slot(s.index, s.generation, name, true, fault.SignalDataReadOutOfRange)
}

// IsZero reports whether r refers to no instance.
func (r Receiver) IsZero() bool { return r.def == nil }

// ID returns the instance identity, 1..queueSize.
func (r Receiver) ID() uint32 { return uint32(r.index + 1) }

// Name returns the signal name.
func (r Receiver) Name() string {
	if r.def == nil {
		return ""
	}
	return r.def.name
}

// Finish marks the instance processed. It goes straight back to Unused if
// its lifetime already elapsed, otherwise to Finished.
func (r Receiver) Finish() error {
	if r.def == nil {
		return fault.New(fault.SignalIsNotInProcess, "signal is not in process")
	}
	return r.def.finish(r.index, r.generation)
}

// Integer reads a parameter. Bool parameters read as 0 or 1.
func (r Receiver) Integer(name string) (int64, error) {
	b, t, err := r.param(name)
	if err != nil {
		return 0, err
	}
	return decodeInteger(b, t, name)
}

func (r Receiver) Double(name string) (float64, error) {
	b, t, err := r.param(name)
	if err != nil {
		return 0, err
	}
	return decodeDouble(b, t, name)
}

func (r Receiver) Bool(name string) (bool, error) {
	v, err := r.Integer(name)
	return v != 0, err
}

func (r Receiver) SetInteger(name string, v int64) error {
	b, t, err := r.result(name)
	if err != nil {
		return err
	}
	return encodeInteger(b, t, name, v)
}

func (r Receiver) SetDouble(name string, v float64) error {
	b, t, err := r.result(name)
	if err != nil {
		return err
	}
	return encodeDouble(b, t, name, v)
}

func (r Receiver) SetBool(name string, v bool) error {
	return r.SetInteger(name, boolToInt(v))
}

func (r Receiver) param(name string) ([]byte, FieldType, error) {
	if r.def == nil {
		return nil, 0, fault.New(fault.SignalDataMissingMemory, "receiver refers to no signal instance")
	}
	return r.def.slot(r.index, r.generation, name, false, fault.SignalDataReadOutOfRange)
}

func (r Receiver) result(name string) ([]byte, FieldType, error) {
	if r.def == nil {
		return nil, 0, fault.New(fault.SignalDataMissingMemory, "receiver refers to no signal instance")
	}
	return r.def.slot(r.index, r.generation, name, true, fault.SignalDataWriteOutOfRange)
}

func boolToInt(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
