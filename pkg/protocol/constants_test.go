package protocol

import "testing"

func TestHookTypeString(t *testing.T) {
	tests := []struct {
		hook HookType
		want string
	}{
		{HookUpdateWeb, "UpdateWeb"},
		{HookUpdateEnd, "UpdateEnd"},
		{HookError, "Error"},
		{EventKeyDown.Hook(), "KeyDown"},
		{HookType(12345), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.hook.String(); got != tt.want {
			t.Errorf("HookType(%d).String() = %q, want %q", int64(tt.hook), got, tt.want)
		}
	}
}

func TestCombinationHas(t *testing.T) {
	c := CombRightButton | CombCtrl | CombAlt
	if !c.Has(CombCtrl) || !c.Has(CombAlt) {
		t.Errorf("%#x should contain ctrl and alt", int64(c))
	}
	if c.Has(CombShift) {
		t.Errorf("%#x should not contain shift", int64(c))
	}
}

func TestPixelFormat(t *testing.T) {
	tests := []struct {
		f    PixelFormat
		bpp  int
		name string
	}{
		{FormatMono8, 1, "MONO8"},
		{FormatRGB24, 3, "RGB24"},
		{FormatRGB32, 4, "RGB32"},
		{FormatBGR32, 4, "BGR32"},
		{FormatYUV16, 0, "YUV16"},
	}
	for _, tt := range tests {
		if got := tt.f.BytesPerPixel(); got != tt.bpp {
			t.Errorf("%s.BytesPerPixel() = %d, want %d", tt.name, got, tt.bpp)
		}
		if got := tt.f.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
	}
}
