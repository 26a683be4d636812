package bot

import "strings"

// Command names.
const (
	CmdPredict = "predict"
	CmdHelp    = "help"
	CmdUnknown = "unknown"
)

var commandAliases = map[string]string{
	"예측":      CmdPredict,
	"predict": CmdPredict,
	"help":    CmdHelp,
	"도움말":     CmdHelp,
}

// Command is a parsed chat command.
type Command struct {
	Name string
	Args []string
}

// ParseCommand strips prefix from text. ok is false when text is not addressed to the bot.
// A bare prefix is treated as help.
func ParseCommand(prefix, text string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return Command{}, false
	}
	fields := strings.Fields(strings.TrimPrefix(text, prefix))
	if len(fields) == 0 {
		return Command{Name: CmdHelp}, true
	}
	name, known := commandAliases[strings.ToLower(fields[0])]
	if !known {
		name = CmdUnknown
	}
	return Command{Name: name, Args: fields[1:]}, true
}
