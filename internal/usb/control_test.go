package usb

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behrlich/go-davis/internal/decoder"
)

func TestDecoderConfigDAVIS208(t *testing.T) {
	info := Info{ChipID: chipIDDAVIS208, DVSSizeX: 240, DVSSizeY: 180, APSSizeX: 240, APSSizeY: 180}
	cfg := info.DecoderConfig()
	assert.Equal(t, decoder.ChipDAVIS208, cfg.Chip)
	assert.Equal(t, uint16(240), cfg.DVSSizeX)
	assert.Equal(t, uint16(180), cfg.DVSSizeY)
}

func TestDecoderConfigUnknownChipIsGeneric(t *testing.T) {
	info := Info{ChipID: 0xDEAD}
	cfg := info.DecoderConfig()
	assert.Equal(t, decoder.ChipGeneric, cfg.Chip)
}

func TestOrientationBitsDecoded(t *testing.T) {
	info := Info{}
	info.APSInvertXY = true
	info.APSFlipX = true
	cfg := info.DecoderConfig()
	assert.True(t, cfg.APSInvertXY)
	assert.True(t, cfg.FlipX)
	assert.False(t, cfg.FlipY)
}
