package fault

// Kind groups codes into the coarse failure taxonomy.
type Kind int

const (
	KindUnknown Kind = iota
	// KindCapacity: no free signal instance, list or list entry.
	KindCapacity
	// KindProtocol: unknown command, bad checksum, malformed payload,
	// wrong command for the current list state.
	KindProtocol
	// KindOrdering: calls out of order, registration after freeze.
	KindOrdering
	// KindRange: value outside its declared range, wrong accessor.
	KindRange
	// KindNotFound: unknown group, entry, signal, state or domain.
	KindNotFound
	// KindInternal: a broken runtime invariant.
	KindInternal
)

var kindNames = [...]string{
	KindUnknown:  "unknown",
	KindCapacity: "capacity",
	KindProtocol: "protocol",
	KindOrdering: "ordering",
	KindRange:    "range",
	KindNotFound: "not_found",
	KindInternal: "internal",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var codeKinds = map[Code]Kind{
	TooManyOpenLists:          KindCapacity,
	NoListEntriesLeft:         KindCapacity,
	CouldNotPrepareSignal:     KindCapacity,
	SignalHasNoInstances:      KindCapacity,
	ListExceedsMaximumSize:    KindCapacity,
	JournalRingBufferIsFull:   KindCapacity,
	TCPSendBufferIsFull:       KindCapacity,
	TCPSendBufferSizeExceeded: KindCapacity,

	InvalidPayload:                 KindProtocol,
	InvalidRequest:                 KindProtocol,
	InvalidTCPResponse:             KindProtocol,
	InvalidPayloadAddress:          KindProtocol,
	InvalidPayloadReadOperation:    KindProtocol,
	InvalidPayloadOffset:           KindProtocol,
	InvalidListID:                  KindProtocol,
	NoListToWriteTo:                KindProtocol,
	NotWritingToAnyList:            KindProtocol,
	NotInListCreation:              KindProtocol,
	ListIsEmpty:                    KindProtocol,
	ListIsNotFinished:              KindProtocol,
	ListIsNotInQueue:               KindProtocol,
	PacketHandlerAlreadyRegistered: KindProtocol,

	SignalIsNotInPreparation:           KindOrdering,
	SignalIsNotInProcess:               KindOrdering,
	NoSignalToFinish:                   KindOrdering,
	FinishedSignalInWrongOrder:         KindOrdering,
	CannotRegisterSignal:               KindOrdering,
	CannotRegisterParameter:            KindOrdering,
	CannotRegisterResult:               KindOrdering,
	CannotBuildSignalInstances:         KindOrdering,
	SignalInstancesAlreadyBuilt:        KindOrdering,
	CouldNotCheckSignal:                KindOrdering,
	JournalIsNotInitializing:           KindOrdering,
	DuplicateSignalDefinition:          KindOrdering,
	DuplicateSignalParameterName:       KindOrdering,
	DuplicateSignalResultName:          KindOrdering,
	DuplicateJournalGroupID:            KindOrdering,
	DuplicateJournalGroupName:          KindOrdering,
	JournalEntryAlreadyRegistered:      KindOrdering,
	StateAlreadyExists:                 KindOrdering,
	ModuleAlreadyExists:                KindOrdering,
	PayloadSignalSlotAlreadyTaken:      KindOrdering,
	PayloadSignalSlotIndexAlreadyTaken: KindOrdering,

	ValueIsOutsideOfInteger32Range:         KindRange,
	ValueIsOutsideOfUnsignedInteger32Range: KindRange,
	CouldNotReadDoubleFromParameter:        KindRange,
	CouldNotReadIntegerFromParameter:       KindRange,
	CouldNotWriteDoubleToParameter:         KindRange,
	CouldNotWriteIntegerToParameter:        KindRange,
	JournalValueOutsideOfRange:             KindRange,
	JournalEntryTypeMismatch:               KindRange,
	InvalidSignalSlotIndex:                 KindRange,
	InvalidSignalQueueSize:                 KindRange,
	InvalidContextAddress:                  KindRange,
	InvalidContextReadOperation:            KindRange,
	InvalidContextWriteOperation:           KindRange,
	InvalidJournalEntryID:                  KindRange,
	InvalidJournalGroupID:                  KindRange,
	InvalidJournalEntryName:                KindRange,
	InvalidJournalGroupName:                KindRange,
	EmptyJournalEntryName:                  KindRange,
	EmptyJournalGroupName:                  KindRange,
	InvalidName:                            KindRange,
	InvalidParam:                           KindRange,

	StateNotFound:            KindNotFound,
	ModuleNotFound:           KindNotFound,
	SignalParameterNotFound:  KindNotFound,
	SignalResultNotFound:     KindNotFound,
	SignalSlotIsEmpty:        KindNotFound,
	SignalHandlerNotFound:    KindNotFound,
	SignalDefinitionNotFound: KindNotFound,
	JournalGroupIDNotFound:   KindNotFound,
	JournalGroupNameNotFound: KindNotFound,
	JournalEntryNotFound:     KindNotFound,
	VariableGroupNotFound:    KindNotFound,
	InvalidEntryID:           KindNotFound,
	ListDoesNotExist:         KindNotFound,

	NextStateHasNotBeenSet:      KindInternal,
	InternalListError:           KindInternal,
	UnhandledException:          KindInternal,
	SignalTriggerTimeIsInFuture: KindInternal,
	SignalDataMissingMemory:     KindInternal,
	SignalDataWriteOutOfRange:   KindInternal,
	SignalDataReadOutOfRange:    KindInternal,
	SignalMemoryAllocationError: KindInternal,
	JournalDataBufferOverrun:    KindInternal,
	InvalidJournalAddress:       KindInternal,
	InvalidJournalEntrySize:     KindInternal,
	EmptyJournalNotAllowed:      KindInternal,
}

// Kind returns the taxonomy bucket of c. Device-specific codes are
// KindUnknown.
func (c Code) Kind() Kind {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return KindUnknown
}
