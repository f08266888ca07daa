package proxies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Input{Type: "HTTP", Host: "1.2.3.4", Port: 8080}
	require.NoError(t, valid.Validate())

	bad := []Input{
		{Type: "ftp", Host: "1.2.3.4", Port: 21},
		{Type: "", Host: "1.2.3.4", Port: 21},
		{Type: "socks5", Host: "", Port: 1080},
		{Type: "socks5", Host: "a b", Port: 1080},
		{Type: "socks5", Host: "1.2.3.4", Port: 0},
		{Type: "socks5", Host: "1.2.3.4", Port: 65536},
	}
	for _, in := range bad {
		assert.ErrorIs(t, in.Validate(), ErrInvalidProxy, "%+v", in)
	}
}

func TestParamsDefaults(t *testing.T) {
	p := Input{Type: " Socks4 ", Host: " 10.0.0.1 ", Port: 1080}.params()
	assert.Equal(t, "socks4", p.Type)
	assert.Equal(t, "10.0.0.1", p.Host)
	assert.Equal(t, "Proxy 10.0.0.1:1080", p.Name)

	p = Input{Name: "office", Type: "http", Host: "h", Port: 1}.params()
	assert.Equal(t, "office", p.Name)
}
