package list

// State is the lifecycle state of a list.
type State uint32

const (
	ListInQueue       State = 0
	ListInCreation    State = 1
	ListFinished      State = 2
	ExecutingList     State = 3
	ExecutionFinished State = 4
	ExecutionError    State = 5
)

func (s State) String() string {
	switch s {
	case ListInQueue:
		return "in_queue"
	case ListInCreation:
		return "in_creation"
	case ListFinished:
		return "finished"
	case ExecutingList:
		return "executing"
	case ExecutionFinished:
		return "execution_finished"
	case ExecutionError:
		return "execution_error"
	default:
		return "unknown"
	}
}

// EntryState is the execution state of one list entry.
type EntryState uint32

const (
	EntryInQueue          EntryState = 0
	EntryInitialExecution EntryState = 1
	EntryCyclicExecution  EntryState = 2
	EntryFinished         EntryState = 3
	EntryExecutionError   EntryState = 4
)

func (s EntryState) String() string {
	switch s {
	case EntryInQueue:
		return "in_queue"
	case EntryInitialExecution:
		return "initial_execution"
	case EntryCyclicExecution:
		return "cyclic_execution"
	case EntryFinished:
		return "finished"
	case EntryExecutionError:
		return "execution_error"
	default:
		return "unknown"
	}
}
