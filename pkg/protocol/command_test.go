package protocol

import "testing"

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CmdAppStart, "AppStart"},
		{CmdRequestObjectData, "RequestObjectData"},
		{CmdSendDisplayPan, "SendDisplayPan"},
		{CmdObjectData, "ObjectData"},
		{CmdRefreshList, "RefreshList"},
		{CmdDisplayInteractiveState, "DisplayInteractiveState"},
		{Command(999), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(%d).String() = %q, want %q", int(tt.cmd), got, tt.want)
		}
	}
}

func TestCommandIsServer(t *testing.T) {
	if CmdSetParameters.IsServer() {
		t.Error("SetParameters should be a client command")
	}
	if !CmdConnectionInfo.IsServer() {
		t.Error("ConnectionInfo should be a server command")
	}
}
