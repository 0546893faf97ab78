package protocol

// PixelFormat identifies the memory layout of image and display payloads.
type PixelFormat int64

const (
	FormatMono8     PixelFormat = 0x0200
	FormatRGB24     PixelFormat = 0x0800
	FormatRGB32     PixelFormat = 0x0900
	FormatBGR32     PixelFormat = 0x1100
	FormatYUV16     PixelFormat = 0x1700
	FormatYUV24     PixelFormat = 0x1b00
	FormatYUV16YUYV PixelFormat = 0x1c00
	FormatYUV16UYVY PixelFormat = 0x1d00
	FormatYUV32     PixelFormat = 0x2000
)

// String returns the string representation of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case FormatMono8:
		return "MONO8"
	case FormatRGB24:
		return "RGB24"
	case FormatRGB32:
		return "RGB32"
	case FormatBGR32:
		return "BGR32"
	case FormatYUV16:
		return "YUV16"
	case FormatYUV24:
		return "YUV24"
	case FormatYUV16YUYV:
		return "YUV16_YUYV"
	case FormatYUV16UYVY:
		return "YUV16_UYVY"
	case FormatYUV32:
		return "YUV32"
	default:
		return "Unknown"
	}
}

// BytesPerPixel returns the payload size of one pixel, or 0 when the
// format cannot be drawn by this client.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatMono8:
		return 1
	case FormatRGB24:
		return 3
	case FormatRGB32, FormatBGR32:
		return 4
	default:
		return 0
	}
}
