package template

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"xcoll.dev/carrier/container"
	"xcoll.dev/carrier/locator"
)

// maxCOMCapacity is what fits in a COM segment: the 16-bit length
// field counts itself, leaving 65533 payload bytes.
const maxCOMCapacity = 0xFFFF - 2

// NewJPEG encodes a solid-color image as a baseline JPEG to serve as
// a carrier base.
func NewJPEG(width, height int, c color.Color) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, container.WrapError(container.KindFormat, "CARR-TPL-021",
			"encode carrier image", err)
	}
	return buf.Bytes(), nil
}

// InsertJPEGComments splices count COM segments directly after the SOI
// marker, each declaring the full capacity and holding the prefix
// followed by zero padding. The returned container's region is the
// payload of the comment at the given occurrence, re-found by the
// locator.
func InsertJPEGComments(base []byte, capacity, count, occurrence int, prefix []byte) (*container.Container, error) {
	if capacity <= 0 || capacity > maxCOMCapacity {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-020",
			fmt.Sprintf("comment capacity %d outside 1..%d", capacity, maxCOMCapacity))
	}
	if len(prefix) > capacity {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-001",
			fmt.Sprintf("prefix is %d bytes but reserved capacity is only %d", len(prefix), capacity))
	}
	if count < 1 || occurrence < 1 || occurrence > count {
		return nil, container.NewError(container.KindFormat, "CARR-TPL-020",
			fmt.Sprintf("occurrence %d not within the %d inserted comments", occurrence, count))
	}
	if len(base) < 2 || base[0] != 0xFF || base[1] != locator.MarkerSOI {
		return nil, container.NewError(container.KindFormat, "CARR-FMT-020",
			"carrier base does not start with SOI")
	}

	seg := make([]byte, 4+capacity)
	seg[0] = 0xFF
	seg[1] = locator.MarkerCOM
	seg[2] = byte((capacity + 2) >> 8)
	seg[3] = byte(capacity + 2)
	copy(seg[4:], prefix)

	var buf bytes.Buffer
	buf.Write(base[:2])
	for i := 0; i < count; i++ {
		buf.Write(seg)
	}
	buf.Write(base[2:])
	data := buf.Bytes()

	region, err := locator.LocateJPEG(data, locator.MarkerCOM, occurrence)
	if err != nil {
		return nil, err
	}
	return container.New(container.FormatJPEG, data, region)
}
