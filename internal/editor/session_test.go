package editor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/omni-blogger/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	mu    sync.Mutex
	calls atomic.Int32
	docs  []*domain.Document
}

func (f *fakeSaver) Save(_ context.Context, doc *domain.Document) (*domain.Document, error) {
	n := f.calls.Add(1)
	out := doc.Clone()
	if out.ID == "" {
		out.ID = fmt.Sprintf("draft-%d", n)
	}
	f.mu.Lock()
	f.docs = append(f.docs, out)
	f.mu.Unlock()
	return out, nil
}

func (f *fakeSaver) last() *domain.Document {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.docs) == 0 {
		return nil
	}
	return f.docs[len(f.docs)-1]
}

func TestSessionDebouncesAutosave(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(30*time.Millisecond))
	defer s.Close()

	s.SetTitle("Hello")
	s.SetTags("go, web")
	s.SetBody("<p>Body</p>")

	require.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 1, saver.calls.Load())

	doc := saver.last()
	assert.Equal(t, "Hello", doc.Title)
	assert.Equal(t, []string{"go", "web"}, doc.Tags)
	assert.Equal(t, "draft-1", s.DraftID())

	// 再次保存沿用同一草稿 ID
	s.SetBody("<p>Body 2</p>")
	require.Eventually(t, func() bool { return saver.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "draft-1", saver.last().ID)
}

func TestSessionSkipsEmptyAutosave(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(10*time.Millisecond))
	defer s.Close()

	s.SetTitle("   ")
	s.SetBody("<p> </p>")
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, saver.calls.Load())
}

func TestSessionResetCancelsPendingSave(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(20*time.Millisecond))
	defer s.Close()

	s.SetTitle("Pending")
	s.Reset()
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 0, saver.calls.Load())
	assert.Equal(t, Snapshot{}, s.Snapshot())
}

func TestSessionLoadDraftAndPost(t *testing.T) {
	s := NewSession(nil)

	s.LoadDraft(&domain.Document{ID: "draft-9", Title: domain.UntitledTitle, Tags: []string{"a", "b"}, Body: "<p>x</p>"})
	snap := s.Snapshot()
	assert.Equal(t, "", snap.Title)
	assert.Equal(t, "a, b", snap.RawTags)
	assert.Equal(t, ModeNew, snap.Mode)

	s.LoadPost(PostState{Slug: "hello", Version: "abc", Title: "Hello", BodyHTML: "<p>y</p>", Base: "y"})
	snap = s.Snapshot()
	assert.True(t, s.IsEditing())
	assert.Equal(t, "", snap.DraftID)
	doc := snap.Document()
	assert.Equal(t, "hello", doc.Slug)
	assert.Equal(t, "abc", doc.RemoteVersion)
	assert.Equal(t, domain.SyncPublished, doc.SyncState())
}

func TestSessionFlush(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(time.Hour))
	defer s.Close()

	doc, err := s.Flush(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc)

	s.SetTitle("Now")
	doc, err = s.Flush(context.Background())
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, doc.ID, s.DraftID())
	assert.EqualValues(t, 1, saver.calls.Load())
}

func TestCommands(t *testing.T) {
	cases := []struct {
		cmd  Command
		text string
		arg  string
		want string
	}{
		{CommandBold, "x", "", "<strong>x</strong>"},
		{CommandItalic, "x", "", "<em>x</em>"},
		{CommandH2, "x", "", "<h2>x</h2>"},
		{CommandH3, "x", "", "<h3>x</h3>"},
		{CommandUL, "a\nb", "", "<ul><li>a</li><li>b</li></ul>"},
		{CommandOL, "a", "", "<ol><li>a</li></ol>"},
		{CommandQuote, "q", "", "<blockquote>q</blockquote>"},
		{CommandLink, "l", "https://x.dev", `<a href="https://x.dev">l</a>`},
		{CommandCode, "a<b", "", "<code>a&lt;b</code>"},
	}
	for _, c := range cases {
		got, err := c.cmd.Apply(c.text, c.arg)
		require.NoError(t, err, c.cmd)
		assert.Equal(t, c.want, got, c.cmd)
	}
	assert.Len(t, Commands, len(cases))

	_, err := CommandLink.Apply("l", "")
	assert.Error(t, err)

	_, err = ParseCommand("strike")
	assert.Error(t, err)
	c, err := ParseCommand(" Bold ")
	require.NoError(t, err)
	assert.Equal(t, CommandBold, c)
}

func TestSessionFormatAppends(t *testing.T) {
	s := NewSession(nil)
	s.SetBody("<p>a</p>")
	require.NoError(t, s.Format(CommandBold, "b", ""))
	assert.Equal(t, "<p>a</p><strong>b</strong>", s.Snapshot().Body)
}

func TestSessionHoldSuspendsAutosave(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(20*time.Millisecond))
	defer s.Close()

	s.SetTitle("Held")
	release := s.Hold()
	s.SetBody("<p>while held</p>")
	time.Sleep(60 * time.Millisecond)
	assert.EqualValues(t, 0, saver.calls.Load())

	// 释放后补上暂停期间的修改
	release()
	release()
	require.Eventually(t, func() bool { return saver.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "<p>while held</p>", saver.last().Body)
}

func TestSessionHoldAfterResetSavesNothing(t *testing.T) {
	saver := &fakeSaver{}
	s := NewSession(saver, WithAutosaveDelay(10*time.Millisecond))
	defer s.Close()

	release := s.Hold()
	s.SetTitle("Discarded")
	s.Reset()
	release()
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 0, saver.calls.Load())
}
