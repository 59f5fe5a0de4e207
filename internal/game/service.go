package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Journal persists the notifications of committed mutations. Failures are
// logged and never undo the mutation.
type Journal interface {
	Record(ctx context.Context, dispatch Dispatch) error
}

type Options struct {
	Limits         Limits
	SessionTTL     time.Duration
	UpdateAttempts int
	CodeAttempts   int
	Journal        Journal
	Now            func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Limits:         DefaultLimits(),
		SessionTTL:     24 * time.Hour,
		UpdateAttempts: 3,
		CodeAttempts:   10,
	}
}

// Service is the game state machine. Every command reads a full snapshot
// through the store, computes the next state and returns the notifications
// the caller has to broadcast.
type Service struct {
	store          Store
	binder         Binder
	journal        Journal
	limits         Limits
	sessionTTL     time.Duration
	updateAttempts int
	codeAttempts   int
	now            func() time.Time
	newCode        func() (string, error)
}

func NewService(store Store, binder Binder, opts Options) *Service {
	defaults := DefaultOptions()
	if opts.Limits == (Limits{}) {
		opts.Limits = defaults.Limits
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaults.SessionTTL
	}
	if opts.UpdateAttempts <= 0 {
		opts.UpdateAttempts = defaults.UpdateAttempts
	}
	if opts.CodeAttempts <= 0 {
		opts.CodeAttempts = defaults.CodeAttempts
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if binder == nil {
		binder = NewMemoryBinder()
	}
	return &Service{
		store:          store,
		binder:         binder,
		journal:        opts.Journal,
		limits:         opts.Limits,
		sessionTTL:     opts.SessionTTL,
		updateAttempts: opts.UpdateAttempts,
		codeAttempts:   opts.CodeAttempts,
		now:            opts.Now,
		newCode:        newJoinCode,
	}
}

func (s *Service) Limits() Limits {
	return s.limits
}

type JoinResult struct {
	ParticipantID string
	DisplayName   string
	ColorTag      string
	SessionToken  string
	HasSubmitted  bool
	Rejoined      bool
	Snapshot      Snapshot
	Dispatch      Dispatch
}

type SubmitResult struct {
	SubmissionCount  int
	ParticipantCount int
	Revealed         bool
	Dispatch         Dispatch
}

func (s *Service) CreateGame(ctx context.Context, question string, capacity int) (Snapshot, error) {
	text, err := s.limits.ValidateQuestion(question)
	if err != nil {
		return Snapshot{}, err
	}
	size, err := s.limits.ValidateCapacity(capacity)
	if err != nil {
		return Snapshot{}, err
	}
	var lastErr error
	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return Snapshot{}, persistenceError("failed to generate game code", err)
		}
		game := &Game{
			Code:        code,
			Question:    text,
			Capacity:    size,
			Submissions: make(map[string]Submission),
			CreatedAt:   s.now(),
		}
		err = s.store.Create(ctx, game)
		if err == nil {
			log.Info().Str("code", game.Code).Int("capacity", game.Capacity).Msg("game created")
			return snapshotOf(game), nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return Snapshot{}, coreError(err)
		}
		lastErr = err
		log.Debug().Str("code", code).Int("attempt", attempt+1).Msg("game code collision")
	}
	return Snapshot{}, persistenceError("could not allocate a unique game code", lastErr)
}

func (s *Service) Join(ctx context.Context, code, displayName string) (JoinResult, error) {
	name, err := s.limits.ValidateName(displayName)
	if err != nil {
		return JoinResult{}, err
	}
	code = NormalizeCode(code)
	var joined Participant
	game, err := s.mutate(ctx, code, func(g *Game) error {
		if g.Full() {
			return ErrGameFull
		}
		if g.Revealed {
			return ErrAlreadyRevealed
		}
		joined = Participant{
			ID:          newParticipantID(),
			DisplayName: name,
			ColorTag:    colorFor(len(g.Participants)),
			JoinedAt:    s.now(),
		}
		g.Participants = append(g.Participants, joined)
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}
	dispatch := Dispatch{
		Code:    game.Code,
		Version: game.Version,
		Notifications: []Notification{{
			Name:    EventParticipantUpdate,
			Payload: CountUpdate{Count: len(game.Participants), Total: game.Capacity},
		}},
	}
	s.record(ctx, dispatch)
	log.Info().
		Str("code", game.Code).
		Str("participant_id", joined.ID).
		Int("participants", len(game.Participants)).
		Int("capacity", game.Capacity).
		Msg("participant joined")
	return JoinResult{
		ParticipantID: joined.ID,
		DisplayName:   joined.DisplayName,
		ColorTag:      joined.ColorTag,
		Snapshot:      snapshotOf(game),
		Dispatch:      dispatch,
	}, nil
}

// RejoinOrJoin returns the participant bound to token in this game without
// touching the game, or joins as a new participant and binds token to it.
// An empty token is replaced by a freshly minted one.
func (s *Service) RejoinOrJoin(ctx context.Context, code, token, displayName string) (JoinResult, error) {
	code = NormalizeCode(code)
	if token != "" {
		result, ok, err := s.rejoin(ctx, code, token)
		if err != nil {
			return JoinResult{}, err
		}
		if ok {
			return result, nil
		}
	} else {
		token = NewSessionToken()
	}

	result, err := s.Join(ctx, code, displayName)
	if err != nil {
		return JoinResult{}, err
	}
	binding := Binding{
		Token:         token,
		Code:          result.Snapshot.Code,
		ParticipantID: result.ParticipantID,
		DisplayName:   result.DisplayName,
		ExpiresAt:     s.now().Add(s.sessionTTL),
	}
	if err := s.binder.Bind(ctx, binding); err != nil {
		// The participant exists already; the client keeps its id but cannot rejoin by token.
		log.Error().Err(err).Str("code", code).Str("participant_id", result.ParticipantID).Msg("session bind failed")
		return result, nil
	}
	result.SessionToken = token
	return result, nil
}

func (s *Service) rejoin(ctx context.Context, code, token string) (JoinResult, bool, error) {
	binding, ok, err := s.binder.Resolve(ctx, token, code)
	if err != nil {
		return JoinResult{}, false, persistenceError("session lookup failed", err)
	}
	if !ok {
		return JoinResult{}, false, nil
	}
	game, err := s.store.Get(ctx, code)
	if err != nil {
		return JoinResult{}, false, coreError(err)
	}
	participant, found := game.Participant(binding.ParticipantID)
	if !found {
		return JoinResult{}, false, nil
	}
	binding.ExpiresAt = s.now().Add(s.sessionTTL)
	if err := s.binder.Bind(ctx, binding); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("session refresh failed")
	}
	log.Info().Str("code", code).Str("participant_id", participant.ID).Msg("participant rejoined")
	return JoinResult{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		ColorTag:      participant.ColorTag,
		SessionToken:  token,
		HasSubmitted:  game.HasSubmitted(participant.ID),
		Rejoined:      true,
		Snapshot:      snapshotOf(game),
		Dispatch:      Dispatch{Code: game.Code, Version: game.Version},
	}, true, nil
}

func (s *Service) Submit(ctx context.Context, code, participantID, content string) (SubmitResult, error) {
	code = NormalizeCode(code)
	text, contentErr := s.limits.ValidatePrediction(content)
	revealedNow := false
	game, err := s.mutate(ctx, code, func(g *Game) error {
		revealedNow = false
		if _, ok := g.Participant(participantID); !ok {
			return ErrForbidden
		}
		if contentErr != nil {
			return contentErr
		}
		if g.HasSubmitted(participantID) {
			return ErrDuplicateSubmission
		}
		if g.Revealed || len(g.Submissions) >= g.Capacity {
			return ErrAlreadyRevealed
		}
		if g.Submissions == nil {
			g.Submissions = make(map[string]Submission)
		}
		g.Submissions[participantID] = Submission{
			Owner:       participantID,
			Content:     text,
			SubmittedAt: s.now(),
		}
		// Participants can only join while filling, so the live count is final once everyone present has submitted.
		if len(g.Submissions) == len(g.Participants) {
			g.Revealed = true
			revealedNow = true
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}
	notifications := []Notification{{
		Name:    EventSubmissionUpdate,
		Payload: CountUpdate{Count: len(game.Submissions), Total: len(game.Participants)},
	}}
	if revealedNow {
		notifications = append(notifications, Notification{
			Name:    EventRevealed,
			Payload: RevealPayload{Pairs: revealPairs(game)},
		})
	}
	dispatch := Dispatch{Code: game.Code, Version: game.Version, Notifications: notifications}
	s.record(ctx, dispatch)
	log.Info().
		Str("code", game.Code).
		Str("participant_id", participantID).
		Int("submissions", len(game.Submissions)).
		Int("participants", len(game.Participants)).
		Bool("revealed", revealedNow).
		Msg("prediction submitted")
	return SubmitResult{
		SubmissionCount:  len(game.Submissions),
		ParticipantCount: len(game.Participants),
		Revealed:         game.Revealed,
		Dispatch:         dispatch,
	}, nil
}

func (s *Service) GetSnapshot(ctx context.Context, code string) (Snapshot, error) {
	game, err := s.store.Get(ctx, NormalizeCode(code))
	if err != nil {
		return Snapshot{}, coreError(err)
	}
	return snapshotOf(game), nil
}

func (s *Service) Reveal(ctx context.Context, code string) ([]RevealPair, error) {
	game, err := s.store.Get(ctx, NormalizeCode(code))
	if err != nil {
		return nil, coreError(err)
	}
	if !game.Revealed {
		return nil, ErrNotRevealed
	}
	return revealPairs(game), nil
}

// SubscribeDispatch returns what a new room subscriber must receive first,
// stamped with the version it reflects.
func (s *Service) SubscribeDispatch(ctx context.Context, code string) (Dispatch, error) {
	game, err := s.store.Get(ctx, NormalizeCode(code))
	if err != nil {
		return Dispatch{}, coreError(err)
	}
	return Dispatch{Code: game.Code, Version: game.Version, Notifications: SubscribeEvents(game)}, nil
}

// mutate applies fn through the store, retrying from a fresh snapshot when
// the store reports a lost race.
func (s *Service) mutate(ctx context.Context, code string, fn func(g *Game) error) (*Game, error) {
	var lastErr error
	for attempt := 0; attempt < s.updateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, persistenceError("request cancelled", err)
		}
		game, err := s.store.Update(ctx, code, func(g *Game) error {
			if err := fn(g); err != nil {
				return err
			}
			if err := g.checkInvariants(); err != nil {
				return persistenceError("game record rejected", err)
			}
			return nil
		})
		if err == nil {
			return game, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, coreError(err)
		}
		lastErr = err
		log.Debug().Str("code", code).Int("attempt", attempt+1).Msg("game update conflict")
	}
	log.Warn().Str("code", code).Int("attempts", s.updateAttempts).Msg("game update retries exhausted")
	return nil, persistenceError("game update could not be applied", lastErr)
}

func (s *Service) record(ctx context.Context, dispatch Dispatch) {
	if s.journal == nil || dispatch.Empty() {
		return
	}
	if err := s.journal.Record(ctx, dispatch); err != nil {
		log.Warn().Err(err).Str("code", dispatch.Code).Int64("version", dispatch.Version).Msg("journal write failed")
	}
}

// coreError passes typed errors through and wraps everything else as a
// persistence failure.
func coreError(err error) error {
	if KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return persistenceError("request cancelled", err)
	}
	return persistenceError(ErrPersistence.Message, err)
}
