package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InvokeMessage]         = (*InvokeCommand)(nil)
	_ gocmd.Commander[SendPayloadMessage]    = (*SendPayloadCommand)(nil)
	_ gocmd.Commander[EnqueuePayloadMessage] = (*EnqueuePayloadCommand)(nil)
	_ gocmd.Commander[DispatchOutboxMessage] = (*DispatchOutboxCommand)(nil)
)
