package trade

// Command codes of the trade endpoint.
const (
	CmdSubscribe        uint8 = 16
	CmdUnsubscribe      uint8 = 17
	CmdPushNotification uint8 = 18
)
