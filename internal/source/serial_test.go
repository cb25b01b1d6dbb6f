//go:build linux

// internal/source/serial_test.go
package source

import (
	"context"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

func TestSerial_PtyRoundTrip(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	src, err := New(Config{
		Device:      slave.Name(),
		BaudRate:    115200,
		ReadTimeout: 200 * time.Millisecond,
		ResetInput:  true,
	}, OpenSerial, nil)
	require.NoError(t, err)

	require.NoError(t, src.Open(context.Background()))
	t.Cleanup(func() { src.Close() })

	// 1. Device line arrives and decodes
	_, err = master.Write([]byte("4,1,5,0,6,1,7,0\r\n"))
	require.NoError(t, err)

	r, err := src.Read()
	require.NoError(t, err)
	require.Equal(t, KindSample, r.Kind)
	require.Equal(t, map[int]int{4: 1, 5: 0, 6: 1, 7: 0}, r.Sample.States())

	// 2. Silence times out within the read timeout
	start := time.Now()
	r, err = src.Read()
	require.NoError(t, err)
	require.Equal(t, KindTimeout, r.Kind)
	require.Less(t, time.Since(start), 2*time.Second)

	// 3. Odd token count is dropped, not returned as an error
	_, err = master.Write([]byte("4,1,5\n"))
	require.NoError(t, err)

	r, err = src.Read()
	require.NoError(t, err)
	require.Equal(t, KindMalformed, r.Kind)

	// 4. Close is idempotent
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
