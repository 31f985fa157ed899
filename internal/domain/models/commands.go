package models

import "strings"

// CommandType enumerates the planner queries accepted over chat.
type CommandType string

const (
	CommandATP       CommandType = "atp"
	CommandBOM       CommandType = "bom"
	CommandItem      CommandType = "item"
	CommandShortages CommandType = "shortages"
	CommandRebuild   CommandType = "rebuild"
	CommandHelp      CommandType = "help"
	CommandUnknown   CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"atp":        CommandATP,
	"promise":    CommandATP,
	"bom":        CommandBOM,
	"kit":        CommandBOM,
	"item":       CommandItem,
	"stock":      CommandItem,
	"shortages":  CommandShortages,
	"violations": CommandShortages,
	"rebuild":    CommandRebuild,
	"help":       CommandHelp,
}

// Command represents a parsed planner instruction. Args keep their original
// case because item keys are canonicalized downstream.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from a slash-prefixed chat message.
func ParseCommand(message string) Command {
	tokens := strings.Fields(strings.TrimSpace(message))
	cmd := Command{Raw: message, Type: CommandUnknown}
	if len(tokens) == 0 {
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	if commandType, ok := commandAliases[head]; ok {
		cmd.Type = commandType
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
