package ssdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWantsBridge(t *testing.T) {
	assert.True(t, wantsBridge("M-SEARCH * HTTP/1.1\r\nST: urn:schemas-upnp-org:device:basic:1\r\n"))
	assert.True(t, wantsBridge("M-SEARCH * HTTP/1.1\r\nST: ssdp:all\r\n"))
	assert.False(t, wantsBridge("M-SEARCH * HTTP/1.1\r\nST: urn:dial-multiscreen-org:service:dial:1\r\n"))
	assert.False(t, wantsBridge("NOTIFY * HTTP/1.1\r\nNT: upnp:rootdevice\r\n"))
}

func TestResponse(t *testing.T) {
	s := NewServer("10.0.0.5", 0)
	assert.Contains(t, s.response(), "LOCATION: http://10.0.0.5:80/description.xml\r\n")
	assert.Contains(t, NewServer("10.0.0.5", 8080).response(), "10.0.0.5:8080")
}
