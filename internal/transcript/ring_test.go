package transcript

import (
	"fmt"
	"testing"

	"ai-docchat-client/internal/entity"

	"github.com/stretchr/testify/assert"
)

func texts(msgs []entity.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestBufferEvictsOldestFirst(t *testing.T) {
	b := New(50)
	for i := 0; i < 120; i++ {
		b.Append("g1", entity.UserMessage(fmt.Sprintf("m%d", i)))
	}

	got := b.History("g1")
	assert.Len(t, got, 50)
	assert.Equal(t, "m70", got[0].Text)
	assert.Equal(t, "m119", got[49].Text)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, fmt.Sprintf("m%d", 70+i), got[i].Text)
	}
}

func TestBufferBelowCapacity(t *testing.T) {
	b := New(3)
	b.Append("g1", entity.UserMessage("a"))
	b.Append("g1", entity.BotMessage("b"))

	got := b.History("g1")
	assert.Equal(t, []string{"a", "b"}, texts(got))
	assert.True(t, got[0].IsUser)
	assert.False(t, got[1].IsUser)
}

func TestBufferIsolatesGroups(t *testing.T) {
	b := New(2)
	b.Append("a", entity.UserMessage("a1"))
	b.Append("b", entity.UserMessage("b1"))
	b.Append("a", entity.UserMessage("a2"))
	b.Append("a", entity.UserMessage("a3"))

	assert.Equal(t, []string{"a2", "a3"}, texts(b.History("a")))
	assert.Equal(t, []string{"b1"}, texts(b.History("b")))
	assert.Empty(t, b.History("missing"))
	assert.NotNil(t, b.History("missing"))
}

func TestBufferReplaceKeepsNewest(t *testing.T) {
	b := New(2)
	b.Append("g", entity.UserMessage("old"))
	b.Replace("g", []entity.ChatMessage{
		entity.UserMessage("1"),
		entity.BotMessage("2"),
		entity.UserMessage("3"),
	})
	assert.Equal(t, []string{"2", "3"}, texts(b.History("g")))

	b.Append("g", entity.BotMessage("4"))
	assert.Equal(t, []string{"3", "4"}, texts(b.History("g")))
}

func TestBufferDropAndAll(t *testing.T) {
	b := New(0)
	assert.Equal(t, 1, b.Cap())

	b.Append("a", entity.UserMessage("x"))
	b.Append("b", entity.UserMessage("y"))
	b.Drop("a")

	all := b.All()
	assert.NotContains(t, all, "a")
	assert.Equal(t, []string{"y"}, texts(all["b"]))

	b.Reset()
	assert.Empty(t, b.All())
}
