package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePIDLines(t *testing.T) {
	assert.Equal(t, []int{12, 345}, parsePIDLines("345\n12\n\n345\nnot-a-pid\n"))
	assert.Empty(t, parsePIDLines(""))
}

func TestParseFuserPIDs(t *testing.T) {
	out := "/dev/video0:  4021  977\n"
	assert.Equal(t, []int{977, 4021}, parseFuserPIDs(out))

	out = "                     USER        PID ACCESS COMMAND\n/dev/video2:         pi         1503 F.... ffmpeg\n"
	assert.Equal(t, []int{1503}, parseFuserPIDs(out))
}

func TestWithoutPID(t *testing.T) {
	assert.Equal(t, []int{1, 3}, withoutPID([]int{1, 2, 3}, 2))
	assert.Empty(t, withoutPID([]int{7}, 7))
}

func TestFreeDeviceDisabled(t *testing.T) {
	assert.Nil(t, FreeDevice("/dev/video0", false))
	assert.Nil(t, FreeDevice("", true))
}
