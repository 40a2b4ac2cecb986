package tray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItem struct {
	titles []string
}

func (f *fakeItem) SetTitle(s string) { f.titles = append(f.titles, s) }

func TestNew_DefaultLabels(t *testing.T) {
	tr := New("Fluid Overlay", nil)
	assert.Equal(t, "Toggle Click-Through", tr.Label(ItemToggleClickThrough))
	assert.Equal(t, "Quit", tr.Label(ItemQuit))
	assert.Empty(t, tr.Label("missing"))
}

func TestSetTrayLabel_BeforeReady(t *testing.T) {
	tr := New("", nil)
	require.NoError(t, tr.SetTrayLabel(ItemToggleClickThrough, "Disable Click-Through"))

	item := &fakeItem{}
	tr.attach(ItemToggleClickThrough, item)
	assert.Equal(t, []string{"Disable Click-Through"}, item.titles)
}

func TestSetTrayLabel_AfterReady(t *testing.T) {
	tr := New("", nil)
	item := &fakeItem{}
	tr.attach(ItemToggleClickThrough, item)

	require.NoError(t, tr.SetTrayLabel(ItemToggleClickThrough, "Enable Click-Through"))
	assert.Equal(t, []string{"Toggle Click-Through", "Enable Click-Through"}, item.titles)
	assert.Equal(t, "Enable Click-Through", tr.Label(ItemToggleClickThrough))
}

func TestSetTrayLabel_UnknownItem(t *testing.T) {
	tr := New("", nil)
	err := tr.SetTrayLabel("bogus", "x")
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestDispatch(t *testing.T) {
	tr := New("", nil)
	var got []string
	tr.Handle(ItemShow, func() { got = append(got, ItemShow) })
	tr.Handle(ItemQuit, func() { got = append(got, ItemQuit) })

	tr.dispatch(ItemShow)
	tr.dispatch(ItemTheme) // no handler
	tr.dispatch(ItemQuit)

	assert.Equal(t, []string{ItemShow, ItemQuit}, got)
}

func TestListen_StopsWhenChannelCloses(t *testing.T) {
	tr := New("", nil)
	count := 0
	tr.Handle(ItemHide, func() { count++ })

	clicks := make(chan struct{}, 2)
	clicks <- struct{}{}
	clicks <- struct{}{}
	close(clicks)
	tr.listen(ItemHide, clicks)

	assert.Equal(t, 2, count)
}

func TestMenuIDsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range menu {
		if e.ID == "" {
			continue
		}
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Len(t, seen, 8)
}
