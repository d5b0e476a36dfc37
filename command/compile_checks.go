package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[ProcessPROpenedMessage]         = (*ProcessPROpenedCommand)(nil)
	_ gocmd.Commander[ProcessRecoveryCompleteMessage] = (*ProcessRecoveryCompleteCommand)(nil)
)
