package canvas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []string
	err       error
}

func (p *recordingPublisher) PublishSurface(state string) error {
	p.published = append(p.published, state)
	return p.err
}

func TestSession_UndoRedo_PublishesResultingSurface(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	pub := &recordingPublisher{}
	session := NewSession(buf, WithPublisher(pub))
	req.NoError(session.Init())

	// Given two local edits
	buf.Draw("stroke-1")
	req.NoError(session.Commit())
	buf.Draw("stroke-1+2")
	req.NoError(session.Commit())
	req.Equal(2, session.Cursor())
	req.Empty(pub.published)

	// When the user undoes
	ok, err := session.Undo()

	// Then the surface shows the previous snapshot and peers receive it
	req.NoError(err)
	req.True(ok)
	state, _ := buf.Capture()
	req.Equal("stroke-1", state)
	req.Equal([]string{"stroke-1"}, pub.published)

	// When the user redoes
	ok, err = session.Redo()
	req.NoError(err)
	req.True(ok)
	state, _ = buf.Capture()
	req.Equal("stroke-1+2", state)
	req.Equal([]string{"stroke-1", "stroke-1+2"}, pub.published)
}

func TestSession_Undo_AtStartIsSilentNoOp(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	pub := &recordingPublisher{}
	session := NewSession(buf, WithPublisher(pub))
	req.NoError(session.Init())

	ok, err := session.Undo()
	req.NoError(err)
	req.False(ok)

	ok, err = session.Redo()
	req.NoError(err)
	req.False(ok)
	req.Empty(pub.published)
}

func TestSession_ApplyRemote_DoesNotGrowHistory(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	session := NewSession(buf)
	req.NoError(session.Init())
	buf.Draw("mine")
	req.NoError(session.Commit())

	// When several remote snapshots arrive
	for _, s := range []string{"peer-1", "peer-2", "peer-3"} {
		req.NoError(session.ApplyRemote(s))
	}

	// Then the surface shows the last one and the history is unchanged
	state, _ := buf.Capture()
	req.Equal("peer-3", state)
	req.Equal(2, session.Len())
	req.Equal(1, session.Cursor())
}

func TestSession_Clear_CommitsBlankState(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	session := NewSession(buf)
	buf.Draw("picture")
	req.NoError(session.Commit())

	req.NoError(session.Clear())

	state, _ := buf.Capture()
	req.Empty(state)
	req.Equal(2, session.Len())

	// undoing the clear brings the picture back
	ok, err := session.Undo()
	req.NoError(err)
	req.True(ok)
	state, _ = buf.Capture()
	req.Equal("picture", state)
}

func TestSession_WithoutPublisher_StaysLocal(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	session := NewSession(buf, WithCapacity(2))
	for _, s := range []string{"a", "b", "c"} {
		buf.Draw(s)
		req.NoError(session.Commit())
	}
	req.Equal(2, session.Len())

	ok, err := session.Undo()
	req.NoError(err)
	req.True(ok)
	state, _ := buf.Capture()
	req.Equal("b", state)
}

func TestSession_PublishErrorIsReturned(t *testing.T) {
	req := require.New(t)
	buf := &Buffer{}
	boom := errors.New("connection closed")
	session := NewSession(buf, WithPublisher(&recordingPublisher{err: boom}))
	buf.Draw("a")
	req.NoError(session.Commit())
	buf.Draw("b")
	req.NoError(session.Commit())

	ok, err := session.Undo()

	// the local undo still happened
	req.True(ok)
	req.ErrorIs(err, boom)
	state, _ := buf.Capture()
	req.Equal("a", state)
}
