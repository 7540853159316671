// Package signal is the messaging channel of the bot: it receives and sends
// Signal messages through signal-cli.
//
// The client wraps the signal-cli command-line tool, which must be installed
// and registered for the bot's phone number:
//
//	signal-cli -u +15551234567 register
//	signal-cli -u +15551234567 verify CODE_RECEIVED
//
// Listen polls "signal-cli receive" until its context is cancelled and hands
// every direct message to a handler. Group messages are skipped.
//
// Example usage:
//
//	client, err := signal.NewClient("+15551234567")
//	if err != nil {
//	    return err
//	}
//	err = client.Listen(ctx, func(ctx context.Context, msg signal.Message) error {
//	    return client.SendMessage(ctx, msg.SenderID, "Hello!")
//	}, 5*time.Second)
package signal
