package pools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferBuilderRoundTrip(t *testing.T) {
	b := NewBufferBuilder(4)
	b.WriteString("n:")
	b.WriteString("abc-123")
	b.WriteByte(':')
	got := b.Bytes()
	assert.Equal(t, "n:abc-123:", string(got))
}

func TestBytePoolGetSizing(t *testing.T) {
	p := NewBytePool()
	small := p.Get(10)
	assert.GreaterOrEqual(t, cap(small), 10)
	assert.Len(t, small, 0)

	huge := p.Get(1 << 20)
	assert.GreaterOrEqual(t, cap(huge), 1<<20)
}
