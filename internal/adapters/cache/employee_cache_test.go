package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/feecc/internal/ports/secondary"
)

func TestEmployeeCache_GetPut(t *testing.T) {
	c := NewEmployeeCache(8, time.Hour)

	_, ok := c.Get("employees", "abc")
	assert.False(t, ok)

	c.Put("employees", "abc", &secondary.EmployeeRecord{RFIDCardID: "1", Name: "Ivan", Position: "Engineer"})
	got, ok := c.Get("employees", "abc")
	require.True(t, ok)
	assert.Equal(t, "Ivan", got.Name)

	_, ok = c.Get("other", "abc")
	assert.False(t, ok, "namespaces must not collide")
}

func TestEmployeeCache_Remove(t *testing.T) {
	c := NewEmployeeCache(8, time.Hour)
	c.Put("employees", "abc", &secondary.EmployeeRecord{RFIDCardID: "1", Name: "Ivan"})

	c.Remove("employees", "abc")
	_, ok := c.Get("employees", "abc")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	c.Remove("employees", "missing")
}

func TestEmployeeCache_ReturnsCopies(t *testing.T) {
	c := NewEmployeeCache(8, time.Hour)
	rec := &secondary.EmployeeRecord{RFIDCardID: "1", Name: "Ivan"}
	c.Put("employees", "abc", rec)

	rec.Name = "changed"
	got, ok := c.Get("employees", "abc")
	require.True(t, ok)
	assert.Equal(t, "Ivan", got.Name)

	got.Name = "mutated"
	again, _ := c.Get("employees", "abc")
	assert.Equal(t, "Ivan", again.Name)
}

func TestEmployeeCache_Bounds(t *testing.T) {
	c := NewEmployeeCache(2, time.Hour)
	c.Put("employees", "a", &secondary.EmployeeRecord{RFIDCardID: "a"})
	c.Put("employees", "b", &secondary.EmployeeRecord{RFIDCardID: "b"})
	c.Put("employees", "c", &secondary.EmployeeRecord{RFIDCardID: "c"})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("employees", "a")
	assert.False(t, ok, "oldest entry should be evicted")
}

func TestEmployeeCache_Expiry(t *testing.T) {
	c := NewEmployeeCache(8, 20*time.Millisecond)
	c.Put("employees", "a", &secondary.EmployeeRecord{RFIDCardID: "a"})

	assert.Eventually(t, func() bool {
		_, ok := c.Get("employees", "a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestEmployeeCache_IgnoresNil(t *testing.T) {
	c := NewEmployeeCache(8, time.Hour)
	c.Put("employees", "a", nil)
	assert.Equal(t, 0, c.Len())
}
