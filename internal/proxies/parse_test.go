package proxies

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Input
		ok   bool
	}{
		{"1.2.3.4:8080", Input{Type: "http", Host: "1.2.3.4", Port: 8080}, true},
		{"1.2.3.4:8080:user:pass", Input{Type: "http", Host: "1.2.3.4", Port: 8080, Username: "user", Password: "pass"}, true},
		{"socks5://1.2.3.4:1080", Input{Type: "socks5", Host: "1.2.3.4", Port: 1080}, true},
		{"SOCKS5://1.2.3.4:1080:u:p", Input{Type: "socks5", Host: "1.2.3.4", Port: 1080, Username: "u", Password: "p"}, true},
		{"https://u:p@proxy.example.com:443", Input{Type: "https", Host: "proxy.example.com", Port: 443, Username: "u", Password: "p"}, true},
		{"  http://1.2.3.4:3128  ", Input{Type: "http", Host: "1.2.3.4", Port: 3128}, true},
		{"ftp://1.2.3.4:21", Input{Type: "ftp", Host: "1.2.3.4", Port: 21}, true},
		{"", Input{}, false},
		{"   ", Input{}, false},
		{"# comment", Input{}, false},
		{"1.2.3.4", Input{}, false},
		{"1.2.3.4:abc", Input{}, false},
		{"http://u@1.2.3.4:80", Input{}, false},
		{"user:p@ss@1.2.3.4:8080", Input{}, false},
		{"socks5://user:p:ss@1.2.3.4:1080", Input{Type: "socks5", Host: "1.2.3.4", Port: 1080, Username: "user", Password: "p:ss"}, true},
		{":8080", Input{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseLine(tt.line)
		assert.Equal(t, tt.ok, ok, "line %q", tt.line)
		assert.Equal(t, tt.want, got, "line %q", tt.line)
	}
}
