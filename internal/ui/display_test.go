package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(q *keyQueue) []rune {
	var keys []rune
	for {
		k, ok := q.poll(0)
		if !ok {
			return keys
		}
		keys = append(keys, k)
	}
}

func TestKeyQueuePoll(t *testing.T) {
	q := newKeyQueue(2)

	_, ok := q.poll(0)
	assert.False(t, ok)

	start := time.Now()
	_, ok = q.poll(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	q.push('f')
	q.push('r')
	q.push(' ') // dropped, queue full
	assert.Equal(t, []rune{'f', 'r'}, drain(q))
}

func TestKeyQueueWaitsForKey(t *testing.T) {
	q := newKeyQueue(1)
	go func() {
		time.Sleep(5 * time.Millisecond)
		q.push('F')
	}()
	k, ok := q.poll(time.Second)
	require.True(t, ok)
	assert.Equal(t, 'F', k)
}

func TestKeyFromCode(t *testing.T) {
	_, ok := keyFromCode(-1)
	assert.False(t, ok)

	k, ok := keyFromCode(27)
	require.True(t, ok)
	assert.Equal(t, rune(keyEscape), k)

	// Modifier bits above the low byte are ignored.
	k, ok = keyFromCode(0x100000 | 'f')
	require.True(t, ok)
	assert.Equal(t, 'f', k)
}

func TestWindowPollKeyTreatsClosedWindowAsEscape(t *testing.T) {
	open := false
	var waited []int
	d := &WindowDisplay{
		waitKey: func(ms int) int {
			waited = append(waited, ms)
			return -1
		},
		visible: func() bool { return open },
	}

	// Not yet shown: an invisible window is not a close.
	_, ok := d.PollKey(0)
	assert.False(t, ok)

	d.shown = true
	open = true
	_, ok = d.PollKey(10 * time.Millisecond)
	assert.False(t, ok)

	open = false
	k, ok := d.PollKey(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, rune(keyEscape), k)

	assert.Equal(t, []int{1, 10, 10}, waited)
}

func TestWindowPollKeyReturnsPressedKey(t *testing.T) {
	d := &WindowDisplay{
		shown:   true,
		waitKey: func(int) int { return 'r' },
		visible: func() bool { return true },
	}
	k, ok := d.PollKey(time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 'r', k)
}

func TestReadKeys(t *testing.T) {
	q := newKeyQueue(16)
	readKeys(strings.NewReader("f R\n"), q)
	assert.Equal(t, []rune{'f', ' ', 'R'}, drain(q))
}

func TestReadKeysCtrlCAndEscape(t *testing.T) {
	q := newKeyQueue(16)
	readKeys(strings.NewReader("\x03"), q)
	assert.Equal(t, []rune{keyEscape}, drain(q))

	readKeys(strings.NewReader("\x1b"), q)
	assert.Equal(t, []rune{keyEscape}, drain(q))

	// Arrow key: ESC [ A in one read.
	readKeys(strings.NewReader("\x1b[A"), q)
	assert.Empty(t, drain(q))
}

func TestToRGBAFromBGR(t *testing.T) {
	// 2x1 BGR: pure blue, pure red
	pix := []byte{255, 0, 0, 0, 0, 255}
	img, err := toRGBA(pix, 2, 1, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 1), img.Rect)
	assert.Equal(t, []byte{0, 0, 255, 255, 255, 0, 0, 255}, img.Pix)
}

func TestToRGBAFromGray(t *testing.T) {
	img, err := toRGBA([]byte{7, 9}, 1, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7, 255, 9, 9, 9, 255}, img.Pix)
}

func TestToRGBAReusesBuffer(t *testing.T) {
	buf := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img, err := toRGBA(make([]byte, 2*2*3), 2, 2, 3, buf)
	require.NoError(t, err)
	assert.Same(t, buf, img)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Rect)
	assert.Len(t, img.Pix, 16)

	// Too small: a new one is allocated.
	img, err = toRGBA(make([]byte, 8*8*3), 8, 8, 3, buf)
	require.NoError(t, err)
	assert.NotSame(t, buf, img)
}

func TestToRGBARejectsShortInput(t *testing.T) {
	_, err := toRGBA(make([]byte, 5), 2, 1, 3, nil)
	assert.Error(t, err)

	_, err = toRGBA(make([]byte, 4), 2, 1, 2, nil)
	assert.Error(t, err)
}

func TestCreateColoredImage(t *testing.T) {
	img := createColoredImage(3, 2, colorRGBA(1, 2, 3))
	for i := 0; i < len(img.Pix); i += 4 {
		assert.Equal(t, []byte{1, 2, 3, 255}, img.Pix[i:i+4])
	}
}

func colorRGBA(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
