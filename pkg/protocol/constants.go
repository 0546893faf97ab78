package protocol

// Special values.
const (
	Null    int64 = 0
	Invalid int64 = -1
	Default int64 = 0x10000000
	Disable int64 = -9999
	Enable  int64 = -9997
	Force   int64 = -9998
	Now     int64 = 29
)

// PrintDisable and PrintEnable are the values of the Error control.
const (
	PrintDisable int64 = 0
	PrintEnable  int64 = 1
)

// ClientVersion is the protocol version this client speaks. The server
// must report the same value in CONNECTION_INFO.
const ClientVersion int64 = 0x1000000

// ApplicationWeb is the ApplicationType sent by web clients.
const ApplicationWeb int64 = 0x1

// MailboxModeWebText marks a mailbox whose payload travels as text.
const MailboxModeWebText int64 = 0x800

// ObjectType identifies the kind of a published object.
type ObjectType int64

const (
	TypeImage          ObjectType = 0x00000004
	TypeArray          ObjectType = 0x00000040
	TypeApplication    ObjectType = 0x00000200
	TypeDisplay        ObjectType = 0x00200000
	TypeGroup          ObjectType = 0x400000000000
	TypeMessageMailbox ObjectType = 0x800000000000
)

// String returns the string representation of the object type.
func (t ObjectType) String() string {
	switch t {
	case TypeImage:
		return "image"
	case TypeArray:
		return "array"
	case TypeApplication:
		return "application"
	case TypeDisplay:
		return "display"
	case TypeGroup:
		return "group"
	case TypeMessageMailbox:
		return "message"
	default:
		return "unknown"
	}
}

// Access flags carried in the AccessType field.
const (
	AccessReadWrite      int64 = 0x00000010
	AccessReadOnly       int64 = 0x00000020
	AccessGraphicList    int64 = 0x00010000
	AccessWebKeyboardUse int64 = 0x00020000
	AccessWebMouseUse    int64 = 0x00040000
	accessTypeMask       int64 = 0xFF
)

// AccessKind extracts the read/write part of a display AccessType.
func AccessKind(accessType int64) int64 {
	return accessType & accessTypeMask
}

// HookType identifies an event that handlers can be attached to.
// Display input event codes are also valid hook types.
type HookType int64

const (
	HookConnecting             HookType = 1
	HookDisconnect             HookType = 2
	HookConnect                HookType = 3
	HookObjectPublishWeb       HookType = 38
	HookUpdateInteractiveState HookType = 84
	HookUpdateEnd              HookType = 0x800 + 8
	HookComponentRemove        HookType = 0x800 + 10
	HookUpdateWeb              HookType = 3187
	HookComponentAdd           HookType = 0x00040000
	HookError                  HookType = 0x40000000
)

// String returns the string representation of the hook type.
func (h HookType) String() string {
	switch h {
	case HookConnecting:
		return "Connecting"
	case HookDisconnect:
		return "Disconnect"
	case HookConnect:
		return "Connect"
	case HookObjectPublishWeb:
		return "ObjectPublishWeb"
	case HookUpdateInteractiveState:
		return "UpdateInteractiveState"
	case HookUpdateEnd:
		return "UpdateEnd"
	case HookComponentRemove:
		return "ComponentRemove"
	case HookUpdateWeb:
		return "UpdateWeb"
	case HookComponentAdd:
		return "ComponentAdd"
	case HookError:
		return "Error"
	}
	if ev := EventType(h); ev.Valid() {
		return ev.String()
	}
	return "Unknown"
}

// InfoType identifies an entry of the information passed to hook handlers.
type InfoType int64

const (
	InfoMousePositionX  InfoType = 1
	InfoMousePositionY  InfoType = 2
	InfoCurrent         InfoType = 0x00000002
	InfoCurrentSubNb    InfoType = 0x00000004
	InfoCombinationKeys InfoType = 7
	InfoEventValue      InfoType = 8
	InfoObjectID        InfoType = 0x001B0000
	InfoCurrentSub1     InfoType = 0x00050000
	InfoDisplay         InfoType = 0x00200000
	InfoComponentAdd    InfoType = InfoType(HookComponentAdd)
	InfoComponentRemove InfoType = InfoType(HookComponentRemove)

	// InfoMessage is added to Current or CurrentSub1 to select the text
	// of an error instead of its code.
	InfoMessage InfoType = 0x20000000
)

// ControlType selects the setting changed by a Control call.
type ControlType int64

const (
	ControlInteractive     ControlType = 0
	ControlUpdateWeb       ControlType = ControlType(HookUpdateWeb)
	ControlFrameRate       ControlType = 6002
	ControlCloseConnection ControlType = 15504
	ControlError           ControlType = ControlType(HookError)
)

// InquireType selects the value returned by an Inquire call.
type InquireType int64

const (
	InquireInteractive      InquireType = 0
	InquirePublishedList    InquireType = 4
	InquirePublishedName    InquireType = 6
	InquireWebPublish       InquireType = 14
	InquireMessageLength    InquireType = 16
	InquireGroupID          InquireType = 18
	InquireObjectName       InquireType = 47
	InquireObjectType       InquireType = 136
	InquireWebClientIndex   InquireType = 219
	InquireDataType         InquireType = 1008
	InquireSizeX            InquireType = 1536
	InquireSizeY            InquireType = 1537
	InquireSizeByte         InquireType = 5061
	InquireFrameRate        InquireType = 6002
	InquireImageHostAddress InquireType = 0x00010000
	InquireComponentIDList  InquireType = 0x00100000
)

// DefaultFramesPerSecond is the rate restored by Control(FrameRate, Default).
const DefaultFramesPerSecond = 10
