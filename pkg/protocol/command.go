package protocol

// Command identifies a protocol message.
type Command int

// Client → Server commands.
const (
	CmdAppStart              Command = 101
	CmdAppEnd                Command = 102
	CmdSetParameters         Command = 103
	CmdObjectConnect         Command = 104
	CmdObjectDisconnect      Command = 105
	CmdRequestObjectData     Command = 125
	CmdRequestObjectInfo     Command = 126
	CmdSendMessage           Command = 128
	CmdGetObjectList         Command = 129
	CmdForceUpdateInProgress Command = 130
	CmdSendDisplayMessage    Command = 135
	CmdSetDisplayInteractive Command = 136
	CmdSendDisplayZoom       Command = 137
	CmdSendDisplayPan        Command = 138
)

// Server → Client commands.
const (
	CmdObjectData              Command = 221
	CmdObjectInfo              Command = 222
	CmdConnectionInfo          Command = 223
	CmdObjectList              Command = 224
	CmdObjectConnected         Command = 225
	CmdObjectDisconnected      Command = 226
	CmdRefreshList             Command = 236
	CmdObjectRemove            Command = 237
	CmdObjectAdd               Command = 238
	CmdObjectFree              Command = 239
	CmdDisplayInteractiveState Command = 240
)

// String returns the string representation of the command.
func (c Command) String() string {
	switch c {
	case CmdAppStart:
		return "AppStart"
	case CmdAppEnd:
		return "AppEnd"
	case CmdSetParameters:
		return "SetParameters"
	case CmdObjectConnect:
		return "ObjectConnect"
	case CmdObjectDisconnect:
		return "ObjectDisconnect"
	case CmdRequestObjectData:
		return "RequestObjectData"
	case CmdRequestObjectInfo:
		return "RequestObjectInfo"
	case CmdSendMessage:
		return "SendMessage"
	case CmdGetObjectList:
		return "GetObjectList"
	case CmdForceUpdateInProgress:
		return "ForceUpdateInProgress"
	case CmdSendDisplayMessage:
		return "SendDisplayMessage"
	case CmdSetDisplayInteractive:
		return "SetDisplayInteractive"
	case CmdSendDisplayZoom:
		return "SendDisplayZoom"
	case CmdSendDisplayPan:
		return "SendDisplayPan"
	case CmdObjectData:
		return "ObjectData"
	case CmdObjectInfo:
		return "ObjectInfo"
	case CmdConnectionInfo:
		return "ConnectionInfo"
	case CmdObjectList:
		return "ObjectList"
	case CmdObjectConnected:
		return "ObjectConnected"
	case CmdObjectDisconnected:
		return "ObjectDisconnected"
	case CmdRefreshList:
		return "RefreshList"
	case CmdObjectRemove:
		return "ObjectRemove"
	case CmdObjectAdd:
		return "ObjectAdd"
	case CmdObjectFree:
		return "ObjectFree"
	case CmdDisplayInteractiveState:
		return "DisplayInteractiveState"
	default:
		return "Unknown"
	}
}

// IsServer reports whether the command is sent by the server.
func (c Command) IsServer() bool {
	return c >= 200
}
