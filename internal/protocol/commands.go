package protocol

// Built-in command ids.
const (
	CommandBeginList       uint32 = 101
	CommandFinishList      uint32 = 102
	CommandExecuteList     uint32 = 103
	CommandListStatus      uint32 = 105
	CommandAbortList       uint32 = 106
	CommandDeleteList      uint32 = 112
	CommandJournalStatus   uint32 = 120
	CommandJournalSchema   uint32 = 121
	CommandJournalVariable uint32 = 122
	CommandJournalHistory  uint32 = 123
)

var commandNames = map[uint32]string{
	CommandBeginList:       "begin_list",
	CommandFinishList:      "finish_list",
	CommandExecuteList:     "execute_list",
	CommandListStatus:      "list_status",
	CommandAbortList:       "abort_list",
	CommandDeleteList:      "delete_list",
	CommandJournalStatus:   "journal_status",
	CommandJournalSchema:   "journal_schema",
	CommandJournalVariable: "journal_variable",
	CommandJournalHistory:  "journal_history",
}

// CommandName returns a readable name for built-in commands and "" for
// anything else.
func CommandName(id uint32) string {
	return commandNames[id]
}

// CommandID looks up a built-in command by its readable name.
func CommandID(name string) (uint32, bool) {
	for id, n := range commandNames {
		if n == name {
			return id, true
		}
	}
	return 0, false
}
