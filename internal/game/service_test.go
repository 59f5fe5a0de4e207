package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *MemoryStore, *MemoryBinder) {
	t.Helper()
	store := NewMemoryStore()
	binder := NewMemoryBinder()
	svc := NewService(store, binder, DefaultOptions())
	return svc, store, binder
}

func fixedCodes(codes ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func createGame(t *testing.T, svc *Service, capacity int) string {
	t.Helper()
	snap, err := svc.CreateGame(context.Background(), "Will it rain?", capacity)
	require.NoError(t, err)
	return snap.Code
}

func TestCreateGameValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateGame(ctx, "   ", 3)
	assert.ErrorIs(t, err, &Error{Kind: KindValidation})

	_, err = svc.CreateGame(ctx, "Who wins?", 1)
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.CreateGame(ctx, "Who wins?", 21)
	assert.Equal(t, KindValidation, KindOf(err))

	snap, err := svc.CreateGame(ctx, "  Who wins?  ", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Capacity)
	assert.Equal(t, "Who wins?", snap.Question)
	assert.Len(t, snap.Code, codeLength)
	assert.Equal(t, StateFilling, snap.State)
}

func TestCreateGameRetriesCodeCollision(t *testing.T) {
	svc, store, _ := newTestService(t)
	svc.newCode = fixedCodes("AAAAAA", "AAAAAA", "BBBBBB")

	first := createGame(t, svc, 2)
	second := createGame(t, svc, 2)

	assert.Equal(t, "AAAAAA", first)
	assert.Equal(t, "BBBBBB", second)
	assert.Equal(t, []string{"AAAAAA", "BBBBBB"}, store.Codes())
}

func TestCreateGameCodeExhaustion(t *testing.T) {
	store := NewMemoryStore()
	opts := DefaultOptions()
	opts.CodeAttempts = 2
	svc := NewService(store, nil, opts)
	svc.newCode = fixedCodes("AAAAAA")

	createGame(t, svc, 2)
	_, err := svc.CreateGame(context.Background(), "Again?", 2)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestJoinUntilFull(t *testing.T) {
	for capacity := 2; capacity <= 20; capacity++ {
		svc, _, _ := newTestService(t)
		code := createGame(t, svc, capacity)
		for i := 0; i < capacity; i++ {
			_, err := svc.Join(context.Background(), code, "player")
			require.NoError(t, err, "join %d of %d", i+1, capacity)
		}
		_, err := svc.Join(context.Background(), code, "late")
		require.ErrorIs(t, err, ErrGameFull, "capacity %d", capacity)

		snap, err := svc.GetSnapshot(context.Background(), code)
		require.NoError(t, err)
		assert.Equal(t, capacity, snap.ParticipantCount)
		assert.False(t, snap.CanJoin)
	}
}

func TestJoinUnknownGame(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Join(context.Background(), "ZZZZZZ", "Ada")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinNormalizesCode(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.newCode = fixedCodes("AB12CD")
	createGame(t, svc, 3)

	res, err := svc.Join(context.Background(), "  ab12cd ", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", res.Snapshot.Code)
}

func TestColorTagsDistinct(t *testing.T) {
	svc, store, _ := newTestService(t)
	code := createGame(t, svc, len(Palette))
	for i := 0; i < len(Palette); i++ {
		_, err := svc.Join(context.Background(), code, "p")
		require.NoError(t, err)
	}
	game, err := store.Get(context.Background(), code)
	require.NoError(t, err)
	seen := map[string]bool{}
	for i, p := range game.Participants {
		assert.Equal(t, Palette[i], p.ColorTag)
		assert.False(t, seen[p.ColorTag], "color %s reused", p.ColorTag)
		seen[p.ColorTag] = true
	}
}

func TestColorWrapsPastPalette(t *testing.T) {
	assert.Equal(t, Palette[0], colorFor(len(Palette)))
	assert.Equal(t, Palette[1], colorFor(len(Palette)+1))
}

func TestScenarioRevealInJoinOrder(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.newCode = fixedCodes("AB12CD")
	ctx := context.Background()

	snap, err := svc.CreateGame(ctx, "Will it rain?", 2)
	require.NoError(t, err)
	require.Equal(t, "AB12CD", snap.Code)

	alice, err := svc.Join(ctx, "AB12CD", "Alice")
	require.NoError(t, err)
	assert.Equal(t, 1, alice.Snapshot.ParticipantCount)
	assert.Equal(t, []Notification{{Name: EventParticipantUpdate, Payload: CountUpdate{Count: 1, Total: 2}}}, alice.Dispatch.Notifications)

	bob, err := svc.Join(ctx, "AB12CD", "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, bob.Snapshot.ParticipantCount)

	_, err = svc.Join(ctx, "AB12CD", "Carol")
	require.ErrorIs(t, err, ErrGameFull)

	first, err := svc.Submit(ctx, "AB12CD", alice.ParticipantID, "Yes")
	require.NoError(t, err)
	assert.Equal(t, 1, first.SubmissionCount)
	assert.False(t, first.Revealed)
	require.Len(t, first.Dispatch.Notifications, 1)
	assert.Equal(t, CountUpdate{Count: 1, Total: 2}, first.Dispatch.Notifications[0].Payload)

	second, err := svc.Submit(ctx, "AB12CD", bob.ParticipantID, "No")
	require.NoError(t, err)
	assert.Equal(t, 2, second.SubmissionCount)
	assert.True(t, second.Revealed)
	require.Len(t, second.Dispatch.Notifications, 2)
	assert.Equal(t, EventRevealed, second.Dispatch.Notifications[1].Name)

	payload := second.Dispatch.Notifications[1].Payload.(RevealPayload)
	type pair struct{ Name, Content string }
	got := make([]pair, 0, len(payload.Pairs))
	for _, p := range payload.Pairs {
		got = append(got, pair{p.Participant.DisplayName, p.Submission.Content})
	}
	want := []pair{{"Alice", "Yes"}, {"Bob", "No"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("reveal payload mismatch (-want +got):\n%s", diff)
	}
}

func TestRevealWithFewerThanCapacity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 5)

	a, err := svc.Join(ctx, code, "A")
	require.NoError(t, err)
	b, err := svc.Join(ctx, code, "B")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, code, a.ParticipantID, "one")
	require.NoError(t, err)
	res, err := svc.Submit(ctx, code, b.ParticipantID, "two")
	require.NoError(t, err)
	assert.True(t, res.Revealed)

	_, err = svc.Join(ctx, code, "C")
	assert.ErrorIs(t, err, ErrAlreadyRevealed)

	pairs, err := svc.Reveal(ctx, code)
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
}

func TestSubmitErrors(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 3)
	a, err := svc.Join(ctx, code, "A")
	require.NoError(t, err)
	_, err = svc.Join(ctx, code, "B")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "ZZZZZZ", a.ParticipantID, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Submit(ctx, code, "not-a-participant", "x")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Submit(ctx, code, a.ParticipantID, "   ")
	assert.Equal(t, KindValidation, KindOf(err))

	long := make([]rune, 1001)
	for i := range long {
		long[i] = 'x'
	}
	_, err = svc.Submit(ctx, code, a.ParticipantID, string(long))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Submit(ctx, code, a.ParticipantID, "first")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, code, a.ParticipantID, "second")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	game, err := store.Get(ctx, code)
	require.NoError(t, err)
	assert.Len(t, game.Submissions, 1)
	assert.Equal(t, "first", game.Submissions[a.ParticipantID].Content)
	assert.LessOrEqual(t, len(game.Submissions), len(game.Participants))
}

func TestSnapshotHidesContentBeforeReveal(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 2)
	a, err := svc.Join(ctx, code, "A")
	require.NoError(t, err)
	_, err = svc.Join(ctx, code, "B")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, code, a.ParticipantID, "secret")
	require.NoError(t, err)

	snap, err := svc.GetSnapshot(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.SubmissionCount)
	assert.True(t, snap.Participants[0].HasSubmitted)
	assert.False(t, snap.Participants[1].HasSubmitted)

	_, err = svc.Reveal(ctx, code)
	assert.ErrorIs(t, err, ErrNotRevealed)

	sub, err := svc.SubscribeDispatch(ctx, code)
	require.NoError(t, err)
	require.Len(t, sub.Notifications, 1)
	assert.Equal(t, EventGameState, sub.Notifications[0].Name)
}

func TestConcurrentFinalSubmissionsRevealOnce(t *testing.T) {
	for round := 0; round < 50; round++ {
		svc, _, _ := newTestService(t)
		ctx := context.Background()
		code := createGame(t, svc, 2)
		a, err := svc.Join(ctx, code, "A")
		require.NoError(t, err)
		b, err := svc.Join(ctx, code, "B")
		require.NoError(t, err)

		var wg sync.WaitGroup
		results := make([]SubmitResult, 2)
		errs := make([]error, 2)
		for i, id := range []string{a.ParticipantID, b.ParticipantID} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i], errs[i] = svc.Submit(ctx, code, id, "prediction "+id)
			}(i, id)
		}
		wg.Wait()

		reveals := 0
		var payload RevealPayload
		for i := range results {
			require.NoError(t, errs[i])
			for _, n := range results[i].Dispatch.Notifications {
				if n.Name == EventRevealed {
					reveals++
					payload = n.Payload.(RevealPayload)
				}
			}
		}
		require.Equal(t, 1, reveals)
		require.Len(t, payload.Pairs, 2)
		assert.Equal(t, "A", payload.Pairs[0].Participant.DisplayName)
		assert.Equal(t, "B", payload.Pairs[1].Participant.DisplayName)
	}
}

func TestConcurrentJoinsNeverOverflow(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 4)

	var wg sync.WaitGroup
	var mu sync.Mutex
	full := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Join(ctx, code, "p"); err != nil {
				mu.Lock()
				if assert.ErrorIs(t, err, ErrGameFull) {
					full++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	game, err := store.Get(ctx, code)
	require.NoError(t, err)
	assert.Len(t, game.Participants, 4)
	assert.Equal(t, 12, full)
}

func TestRejoinReturnsOriginalParticipant(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 3)

	first, err := svc.RejoinOrJoin(ctx, code, "", "Ada")
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionToken)
	assert.False(t, first.Rejoined)

	again, err := svc.RejoinOrJoin(ctx, code, first.SessionToken, "")
	require.NoError(t, err)
	assert.True(t, again.Rejoined)
	assert.Equal(t, first.ParticipantID, again.ParticipantID)
	assert.Equal(t, "Ada", again.DisplayName)
	assert.True(t, again.Dispatch.Empty())

	_, err = svc.Submit(ctx, code, first.ParticipantID, "soon")
	require.NoError(t, err)
	afterSubmit, err := svc.RejoinOrJoin(ctx, code, first.SessionToken, "Ada")
	require.NoError(t, err)
	assert.True(t, afterSubmit.HasSubmitted)

	game, err := store.Get(ctx, code)
	require.NoError(t, err)
	assert.Len(t, game.Participants, 1)
}

func TestRejoinTokenScopedPerGame(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	one := createGame(t, svc, 3)
	two := createGame(t, svc, 3)

	first, err := svc.RejoinOrJoin(ctx, one, "", "Ada")
	require.NoError(t, err)

	other, err := svc.RejoinOrJoin(ctx, two, first.SessionToken, "Ada")
	require.NoError(t, err)
	assert.False(t, other.Rejoined)
	assert.NotEqual(t, first.ParticipantID, other.ParticipantID)
	assert.Equal(t, first.SessionToken, other.SessionToken)
}

func TestExpiredBindingFallsBackToJoin(t *testing.T) {
	svc, _, binder := newTestService(t)
	ctx := context.Background()
	code := createGame(t, svc, 2)

	now := time.Now().UTC()
	binder.now = func() time.Time { return now }
	svc.now = func() time.Time { return now }

	first, err := svc.RejoinOrJoin(ctx, code, "", "Ada")
	require.NoError(t, err)
	_, err = svc.Join(ctx, code, "Bob")
	require.NoError(t, err)

	binder.now = func() time.Time { return now.Add(25 * time.Hour) }
	_, err = svc.RejoinOrJoin(ctx, code, first.SessionToken, "Ada")
	assert.ErrorIs(t, err, ErrGameFull)
}

// conflictStore loses the first n update races.
type conflictStore struct {
	*MemoryStore
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (s *conflictStore) Update(ctx context.Context, code string, fn func(game *Game) error) (*Game, error) {
	s.mu.Lock()
	s.calls++
	if s.conflicts > 0 {
		s.conflicts--
		s.mu.Unlock()
		if _, err := s.MemoryStore.Get(ctx, code); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	s.mu.Unlock()
	return s.MemoryStore.Update(ctx, code, fn)
}

func TestMutationRetriesConflicts(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore()}
	svc := NewService(store, nil, DefaultOptions())
	ctx := context.Background()
	code := createGame(t, svc, 2)

	store.conflicts = 2
	res, err := svc.Join(ctx, code, "Ada")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Snapshot.ParticipantCount)
	assert.Equal(t, 3, store.calls)
}

func TestMutationRetryExhaustion(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore()}
	svc := NewService(store, nil, DefaultOptions())
	ctx := context.Background()
	code := createGame(t, svc, 2)

	store.conflicts = 3
	_, err := svc.Join(ctx, code, "Ada")
	require.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, ErrConflict)

	game, err := store.Get(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, game.Participants)
}

type recordingJournal struct {
	mu         sync.Mutex
	dispatches []Dispatch
}

func (j *recordingJournal) Record(_ context.Context, d Dispatch) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.dispatches = append(j.dispatches, d)
	return nil
}

func TestJournalReceivesDispatches(t *testing.T) {
	journal := &recordingJournal{}
	opts := DefaultOptions()
	opts.Journal = journal
	svc := NewService(NewMemoryStore(), nil, opts)
	ctx := context.Background()
	code := createGame(t, svc, 2)

	a, err := svc.Join(ctx, code, "A")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, code, a.ParticipantID, "x")
	require.NoError(t, err)

	require.Len(t, journal.dispatches, 2)
	assert.Less(t, journal.dispatches[0].Version, journal.dispatches[1].Version)
	assert.Equal(t, EventSubmissionUpdate, journal.dispatches[1].Notifications[0].Name)
}
