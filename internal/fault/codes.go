package fault

import "fmt"

// Code is a status code of the flat controller error enumeration.
// Values are transmitted verbatim in response headers and must never be
// renumbered.
type Code uint32

const (
	Unknown                                Code = 0
	InvalidParam                           Code = 1
	StateAlreadyExists                     Code = 2
	StateNotFound                          Code = 3
	NextStateHasNotBeenSet                 Code = 4
	ModuleAlreadyExists                    Code = 5
	NoVoltageModule                        Code = 6
	NoCurrentModule                        Code = 7
	InvalidChannelNumber                   Code = 8
	ModuleNotFound                         Code = 9
	InvalidModuleType                      Code = 10
	ModuleNotActive                        Code = 11
	InvalidAxisLink                        Code = 12
	CouldNotPowerAxis                      Code = 13
	CouldNotReferenceAxis                  Code = 14
	InvalidFunctionBlock                   Code = 15
	InvalidParameterBlock                  Code = 16
	InvalidSpeedValue                      Code = 17
	InvalidAccelerationValue               Code = 18
	CouldNotMoveAxis                       Code = 19
	NotImplemented                         Code = 20
	ServerIsAlreadyRunning                 Code = 21
	ServerIsNotRunning                     Code = 22
	UnknownTCPServerState                  Code = 23
	UnknownTCPRecvState                    Code = 24
	UnknownTCPSendState                    Code = 25
	InvalidTCPBufferSize                   Code = 26
	TCPSendBufferSizeExceeded              Code = 27
	TCPSendBufferIsFull                    Code = 28
	PacketHandlerAlreadyRegistered         Code = 29
	InvalidPayload                         Code = 30
	InvalidTCPResponse                     Code = 31
	NoListToWriteTo                        Code = 32
	ListExceedsMaximumSize                 Code = 33
	TooManyOpenLists                       Code = 34
	NoListEntriesLeft                      Code = 35
	InternalListError                      Code = 36
	InvalidPayloadOffset                   Code = 37
	InvalidListID                          Code = 38
	ListIsNotInQueue                       Code = 39
	NotWritingToAnyList                    Code = 40
	NotInListCreation                      Code = 41
	ListIsEmpty                            Code = 42
	ListDoesNotExist                       Code = 43
	ListIsNotFinished                      Code = 44
	InvalidName                            Code = 45
	DuplicateSignalDefinition              Code = 46
	CannotRegisterSignal                   Code = 47
	CannotBuildSignalInstances             Code = 48
	CannotRegisterParameter                Code = 49
	SignalMemoryAllocationError            Code = 50
	DuplicateSignalParameterName           Code = 51
	CannotRegisterResult                   Code = 52
	DuplicateSignalResultName              Code = 53
	InvalidSignalQueueSize                 Code = 54
	SignalInstancesAlreadyBuilt            Code = 55
	SignalDataMissingMemory                Code = 56
	SignalDataWriteOutOfRange              Code = 57
	SignalDataReadOutOfRange               Code = 58
	ValueIsOutsideOfInteger32Range         Code = 59
	ValueIsOutsideOfUnsignedInteger32Range Code = 60
	SignalParameterNotFound                Code = 61
	SignalResultNotFound                   Code = 62
	CouldNotReadDoubleFromParameter        Code = 63
	CouldNotReadIntegerFromParameter       Code = 64
	CouldNotWriteDoubleToParameter         Code = 65
	CouldNotWriteIntegerToParameter        Code = 66
	InvalidPayloadAddress                  Code = 67
	InvalidPayloadReadOperation            Code = 68
	InvalidContextAddress                  Code = 69
	InvalidContextReadOperation            Code = 70
	InvalidContextWriteOperation           Code = 71
	ListContextPayloadSignalSlotCount      Code = 72
	InvalidSignalSlotIndex                 Code = 73
	PayloadSignalSlotIndexAlreadyTaken     Code = 74
	SignalSlotIsEmpty                      Code = 75
	PayloadSignalSlotAlreadyTaken          Code = 76
	SignalHandlerNotFound                  Code = 77
	SignalHasNoInstances                   Code = 78
	CouldNotPrepareSignal                  Code = 79
	SignalDefinitionNotFound               Code = 80
	CouldNotCheckSignal                    Code = 81
	NoSignalToFinish                       Code = 82
	FinishedSignalInWrongOrder             Code = 83
	SignalIsNotInPreparation               Code = 84
	SignalIsNotInProcess                   Code = 85
	InvalidRequest                         Code = 86
	JournalAlreadyRegistering              Code = 87
	JournalIsNotRegistering                Code = 88
	JournalNotSet                          Code = 89
	EmptyJournalEntryName                  Code = 90
	InvalidJournalEntryName                Code = 91
	InvalidJournalEntryID                  Code = 92
	JournalIsNotInitializing               Code = 93
	DuplicateJournalGroupID                Code = 94
	DuplicateJournalGroupName              Code = 95
	JournalGroupIDNotFound                 Code = 96
	// Deprecated: use EmptyJournalGroupName.
	EmptyJournalGroupNameDeprecated        Code = 97
	// Deprecated: use InvalidJournalGroupName.
	InvalidJournalGroupNameDeprecated      Code = 98
	InvalidJournalGroupID                  Code = 99
	JournalGroupNameNotFound               Code = 100
	EmptyJournalGroupName                  Code = 101
	InvalidJournalGroupName                Code = 102
	JournalEntryAlreadyRegistered          Code = 103
	EmptyJournalNotAllowed                 Code = 104
	JournalValueOutsideOfRange             Code = 105
	JournalEntryTypeMismatch               Code = 106
	JournalEntryNotFound                   Code = 107
	InvalidJournalAddress                  Code = 108
	InvalidJournalEntrySize                Code = 109
	JournalDataBufferOverrun               Code = 110
	UnhandledException                     Code = 111
	VariableGroupNotFound                  Code = 112
	InvalidEntryID                         Code = 113
	JournalRingBufferIsEmpty               Code = 114
	JournalRingBufferIsFull                Code = 115
	InvalidChannelType                     Code = 116
	SignalTriggerTimeIsInFuture            Code = 117
	InvalidChannelValue                    Code = 118
)

var codeNames = [...]string{
	Unknown:                                "UNKNOWN",
	InvalidParam:                           "INVALID_PARAM",
	StateAlreadyExists:                     "STATE_ALREADY_EXISTS",
	StateNotFound:                          "STATE_NOT_FOUND",
	NextStateHasNotBeenSet:                 "NEXT_STATE_HAS_NOT_BEEN_SET",
	ModuleAlreadyExists:                    "MODULE_ALREADY_EXISTS",
	NoVoltageModule:                        "NO_VOLTAGE_MODULE",
	NoCurrentModule:                        "NO_CURRENT_MODULE",
	InvalidChannelNumber:                   "INVALID_CHANNEL_NUMBER",
	ModuleNotFound:                         "MODULE_NOT_FOUND",
	InvalidModuleType:                      "INVALID_MODULE_TYPE",
	ModuleNotActive:                        "MODULE_NOT_ACTIVE",
	InvalidAxisLink:                        "INVALID_AXIS_LINK",
	CouldNotPowerAxis:                      "COULD_NOT_POWER_AXIS",
	CouldNotReferenceAxis:                  "COULD_NOT_REFERENCE_AXIS",
	InvalidFunctionBlock:                   "INVALID_FUNCTION_BLOCK",
	InvalidParameterBlock:                  "INVALID_PARAMETER_BLOCK",
	InvalidSpeedValue:                      "INVALID_SPEED_VALUE",
	InvalidAccelerationValue:               "INVALID_ACCELERATION_VALUE",
	CouldNotMoveAxis:                       "COULD_NOT_MOVE_AXIS",
	NotImplemented:                         "NOT_IMPLEMENTED",
	ServerIsAlreadyRunning:                 "SERVER_IS_ALREADY_RUNNING",
	ServerIsNotRunning:                     "SERVER_IS_NOT_RUNNING",
	UnknownTCPServerState:                  "UNKNOWN_TCP_SERVER_STATE",
	UnknownTCPRecvState:                    "UNKNOWN_TCP_RECV_STATE",
	UnknownTCPSendState:                    "UNKNOWN_TCP_SEND_STATE",
	InvalidTCPBufferSize:                   "INVALID_TCP_BUFFER_SIZE",
	TCPSendBufferSizeExceeded:              "TCP_SEND_BUFFER_SIZE_EXCEEDED",
	TCPSendBufferIsFull:                    "TCP_SEND_BUFFER_IS_FULL",
	PacketHandlerAlreadyRegistered:         "PACKET_HANDLER_ALREADY_REGISTERED",
	InvalidPayload:                         "INVALID_PAYLOAD",
	InvalidTCPResponse:                     "INVALID_TCP_RESPONSE",
	NoListToWriteTo:                        "NO_LIST_TO_WRITE_TO",
	ListExceedsMaximumSize:                 "LIST_EXCEEDS_MAXIMUM_SIZE",
	TooManyOpenLists:                       "TOO_MANY_OPEN_LISTS",
	NoListEntriesLeft:                      "NO_LIST_ENTRIES_LEFT",
	InternalListError:                      "INTERNAL_LIST_ERROR",
	InvalidPayloadOffset:                   "INVALID_PAYLOAD_OFFSET",
	InvalidListID:                          "INVALID_LIST_ID",
	ListIsNotInQueue:                       "LIST_IS_NOT_IN_QUEUE",
	NotWritingToAnyList:                    "NOT_WRITING_TO_ANY_LIST",
	NotInListCreation:                      "NOT_IN_LIST_CREATION",
	ListIsEmpty:                            "LIST_IS_EMPTY",
	ListDoesNotExist:                       "LIST_DOES_NOT_EXIST",
	ListIsNotFinished:                      "LIST_IS_NOT_FINISHED",
	InvalidName:                            "INVALID_NAME",
	DuplicateSignalDefinition:              "DUPLICATE_SIGNAL_DEFINITION",
	CannotRegisterSignal:                   "CANNOT_REGISTER_SIGNAL",
	CannotBuildSignalInstances:             "CANNOT_BUILD_SIGNAL_INSTANCES",
	CannotRegisterParameter:                "CANNOT_REGISTER_PARAMETER",
	SignalMemoryAllocationError:            "SIGNAL_MEMORY_ALLOCATION_ERROR",
	DuplicateSignalParameterName:           "DUPLICATE_SIGNAL_PARAMETER_NAME",
	CannotRegisterResult:                   "CANNOT_REGISTER_RESULT",
	DuplicateSignalResultName:              "DUPLICATE_SIGNAL_RESULT_NAME",
	InvalidSignalQueueSize:                 "INVALID_SIGNAL_QUEUE_SIZE",
	SignalInstancesAlreadyBuilt:            "SIGNAL_INSTANCES_ALREADY_BUILT",
	SignalDataMissingMemory:                "SIGNAL_DATA_MISSING_MEMORY",
	SignalDataWriteOutOfRange:              "SIGNAL_DATA_WRITE_OUT_OF_RANGE",
	SignalDataReadOutOfRange:               "SIGNAL_DATA_READ_OUT_OF_RANGE",
	ValueIsOutsideOfInteger32Range:         "VALUE_IS_OUTSIDE_OF_INTEGER32_RANGE",
	ValueIsOutsideOfUnsignedInteger32Range: "VALUE_IS_OUTSIDE_OF_UNSIGNED_INTEGER32_RANGE",
	SignalParameterNotFound:                "SIGNAL_PARAMETER_NOT_FOUND",
	SignalResultNotFound:                   "SIGNAL_RESULT_NOT_FOUND",
	CouldNotReadDoubleFromParameter:        "COULD_NOT_READ_DOUBLE_FROM_PARAMETER",
	CouldNotReadIntegerFromParameter:       "COULD_NOT_READ_INTEGER_FROM_PARAMETER",
	CouldNotWriteDoubleToParameter:         "COULD_NOT_WRITE_DOUBLE_TO_PARAMETER",
	CouldNotWriteIntegerToParameter:        "COULD_NOT_WRITE_INTEGER_TO_PARAMETER",
	InvalidPayloadAddress:                  "INVALID_PAYLOAD_ADDRESS",
	InvalidPayloadReadOperation:            "INVALID_PAYLOAD_READ_OPERATION",
	InvalidContextAddress:                  "INVALID_CONTEXT_ADDRESS",
	InvalidContextReadOperation:            "INVALID_CONTEXT_READ_OPERATION",
	InvalidContextWriteOperation:           "INVALID_CONTEXT_WRITE_OPERATION",
	ListContextPayloadSignalSlotCount:      "LIST_CONTEXT_PAYLOAD_SIGNAL_SLOT_COUNT",
	InvalidSignalSlotIndex:                 "INVALID_SIGNAL_SLOT_INDEX",
	PayloadSignalSlotIndexAlreadyTaken:     "PAYLOAD_SIGNAL_SLOT_INDEX_ALREADY_TAKEN",
	SignalSlotIsEmpty:                      "SIGNAL_SLOT_IS_EMPTY",
	PayloadSignalSlotAlreadyTaken:          "PAYLOAD_SIGNAL_SLOT_ALREADY_TAKEN",
	SignalHandlerNotFound:                  "SIGNAL_HANDLER_NOT_FOUND",
	SignalHasNoInstances:                   "SIGNAL_HAS_NO_INSTANCES",
	CouldNotPrepareSignal:                  "COULD_NOT_PREPARE_SIGNAL",
	SignalDefinitionNotFound:               "SIGNAL_DEFINITION_NOT_FOUND",
	CouldNotCheckSignal:                    "COULD_NOT_CHECK_SIGNAL",
	NoSignalToFinish:                       "NO_SIGNAL_TO_FINISH",
	FinishedSignalInWrongOrder:             "FINISHED_SIGNAL_IN_WRONG_ORDER",
	SignalIsNotInPreparation:               "SIGNAL_IS_NOT_IN_PREPARATION",
	SignalIsNotInProcess:                   "SIGNAL_IS_NOT_IN_PROCESS",
	InvalidRequest:                         "INVALID_REQUEST",
	JournalAlreadyRegistering:              "JOURNAL_ALREADY_REGISTERING",
	JournalIsNotRegistering:                "JOURNAL_IS_NOT_REGISTERING",
	JournalNotSet:                          "JOURNAL_NOT_SET",
	EmptyJournalEntryName:                  "EMPTY_JOURNAL_ENTRY_NAME",
	InvalidJournalEntryName:                "INVALID_JOURNAL_ENTRY_NAME",
	InvalidJournalEntryID:                  "INVALID_JOURNAL_ENTRY_ID",
	JournalIsNotInitializing:               "JOURNAL_IS_NOT_INITIALIZING",
	DuplicateJournalGroupID:                "DUPLICATE_JOURNAL_GROUP_ID",
	DuplicateJournalGroupName:              "DUPLICATE_JOURNAL_GROUP_NAME",
	JournalGroupIDNotFound:                 "JOURNAL_GROUP_ID_NOT_FOUND",
	EmptyJournalGroupNameDeprecated:        "EMPTY_JOURNAL_GROUP_D_NAME",
	InvalidJournalGroupNameDeprecated:      "INVALID_JOURNAL_GROUP_D_NAME",
	InvalidJournalGroupID:                  "INVALID_JOURNAL_GROUP_ID",
	JournalGroupNameNotFound:               "JOURNAL_GROUP_NAME_NOT_FOUND",
	EmptyJournalGroupName:                  "EMPTY_JOURNAL_GROUP_NAME",
	InvalidJournalGroupName:                "INVALID_JOURNAL_GROUP_NAME",
	JournalEntryAlreadyRegistered:          "JOURNAL_ENTRY_ALREADY_REGISTERED",
	EmptyJournalNotAllowed:                 "EMPTY_JOURNAL_NOT_ALLOWED",
	JournalValueOutsideOfRange:             "JOURNAL_VALUE_OUTSIDE_OF_RANGE",
	JournalEntryTypeMismatch:               "JOURNAL_ENTRY_TYPE_MISMATCH",
	JournalEntryNotFound:                   "JOURNAL_ENTRY_NOT_FOUND",
	InvalidJournalAddress:                  "INVALID_JOURNAL_ADDRESS",
	InvalidJournalEntrySize:                "INVALID_JOURNAL_ENTRY_SIZE",
	JournalDataBufferOverrun:               "JOURNAL_DATA_BUFFER_OVERRUN",
	UnhandledException:                     "UNHANDLED_EXCEPTION",
	VariableGroupNotFound:                  "VARIABLE_GROUP_NOT_FOUND",
	InvalidEntryID:                         "INVALID_ENTRY_ID",
	JournalRingBufferIsEmpty:               "JOURNAL_RING_BUFFER_IS_EMPTY",
	JournalRingBufferIsFull:                "JOURNAL_RING_BUFFER_IS_FULL",
	InvalidChannelType:                     "INVALID_CHANNEL_TYPE",
	SignalTriggerTimeIsInFuture:            "SIGNAL_TRIGGER_TIME_IS_IN_FUTURE",
	InvalidChannelValue:                    "INVALID_CHANNEL_VALUE",
}

// String returns the upper snake case name of the code, or CODE_<n> for
// values outside the enumeration.
func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("CODE_%d", uint32(c))
}
