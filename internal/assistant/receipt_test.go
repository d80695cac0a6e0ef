package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestReceiptRead(t *testing.T) {
	f := &fakeCompleter{reply: "  CAFE LUA\nTOTAL 12.50\n"}
	text, notice := NewReceiptReader(f, nil).Read(context.Background(), pngHeader, "")
	assert.Empty(t, notice)
	assert.Equal(t, "CAFE LUA\nTOTAL 12.50", text)

	blocks := f.last.Messages[0].Content
	require.Len(t, blocks, 2)
	assert.Equal(t, "image", blocks[0].Type)
	assert.Equal(t, "image/png", blocks[0].Source.MediaType)
	assert.Equal(t, "base64", blocks[0].Source.Type)
	assert.Equal(t, transcribePrompt, blocks[1].Text)
}

func TestReceiptReadFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		completer Completer
		image     []byte
		mediaType string
		notice    Notice
	}{
		{"unsupported type", &fakeCompleter{reply: "x"}, []byte("%PDF-1.4"), "", NoticeUnsupportedImage},
		{"offline", nil, pngHeader, "image/png", NoticeOffline},
		{"missing key", &fakeCompleter{err: ErrNoCredential}, pngHeader, "image/png; charset=binary", NoticeOffline},
		{"failure", &fakeCompleter{err: errors.New("down")}, pngHeader, "image/png", NoticeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, notice := NewReceiptReader(tt.completer, nil).Read(context.Background(), tt.image, tt.mediaType)
			assert.Empty(t, text)
			assert.Equal(t, tt.notice, notice)
		})
	}
}

func TestReceiptExtract(t *testing.T) {
	f := &fakeCompleter{reply: `{"merchant":"Cafe Lua","total":12.5,"currency":"EUR","date":"2024-03-01","items":[{"name":"Bica","price":1.5,"quantity":2}]}`}
	got, notice := NewReceiptReader(f, nil).Extract(context.Background(), pngHeader, "image/png")
	assert.Empty(t, notice)
	assert.Equal(t, "Cafe Lua", got.Merchant)
	assert.Equal(t, 12.5, got.Total)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, notice = NewReceiptReader(&fakeCompleter{reply: "nope"}, nil).Extract(context.Background(), pngHeader, "image/png")
	assert.Equal(t, NoticeUnavailable, notice)
}
