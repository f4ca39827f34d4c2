package adapters

import (
	"context"
	"testing"

	"dineadmin/internal/core"
	"dineadmin/internal/log"
	"dineadmin/internal/realtime"
	"dineadmin/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyingStore_ProfileWrites(t *testing.T) {
	hub := realtime.NewHub(log.Discard())
	events, cancel := hub.Subscribe()
	defer cancel()

	st := WithNotify(memory.New(nil), hub)
	ctx := context.Background()

	id, err := st.CreateProfile(ctx, core.Profile{Name: "Ravi", Email: "ravi@example.com", Role: core.RoleWaiter})
	require.NoError(t, err)
	assert.Equal(t, realtime.Event{Table: realtime.TableProfiles, Op: realtime.OpInsert, ID: id}, <-events)

	require.NoError(t, st.SetPassword(ctx, id, "hash"))
	assert.Equal(t, realtime.Event{Table: realtime.TableProfiles, Op: realtime.OpUpdate, ID: id}, <-events)
}

func TestNotifyingStore_FailedWriteIsSilent(t *testing.T) {
	hub := realtime.NewHub(log.Discard())
	events, cancel := hub.Subscribe()
	defer cancel()

	st := WithNotify(memory.New(nil), hub)
	_, err := st.CreateProfile(context.Background(), core.Profile{})
	require.Error(t, err)
	assert.Len(t, events, 0)
}

func TestNotifyingStore_MenuWritesPassThrough(t *testing.T) {
	hub := realtime.NewHub(log.Discard())
	events, cancel := hub.Subscribe()
	defer cancel()

	st := WithNotify(memory.New(nil), hub)
	_, err := st.CreateMenuItem(context.Background(), core.MenuItem{Name: "Lassi", Category: "Drinks", Price: core.Money{Cents: 6000}})
	require.NoError(t, err)
	assert.Len(t, events, 0)
}
