package core

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kisaansetu/advisor/internal/session"
)

const historyLimit = 10 // exchanges returned by the history contract

// AskRequest is the per-request inbound contract. SessionID is
// optional; FarmerProfile is only honored when a new session is
// created for the request.
type AskRequest struct {
	Query         string
	SessionID     string
	FarmerProfile map[string]string
}

// AskResult is the per-request outbound contract.
type AskResult struct {
	SessionID            string
	Query                string
	Answer               string
	UsedRetrievedContext bool
	ConversationCount    int
	FarmerProfile        map[string]string
	TopicsDiscussed      string
}

// HistoryResult is the history-read contract.
type HistoryResult struct {
	SessionID       string
	Exchanges       []session.Exchange
	FarmerProfile   map[string]string
	TopicsDiscussed string
}

// AdvisorService orchestrates one advisory turn: session lookup or
// creation, similarity retrieval over the embedded corpus, prompt
// composition, answer generation, and the session log append.
type AdvisorService struct {
	retriever  *Retriever
	generator  Generator
	sessions   *session.Store
	corpus     *EmbeddedCorpus // read-only after startup
	genTimeout time.Duration
	logger     *zap.Logger
}

func NewAdvisorService(retriever *Retriever, generator Generator, sessions *session.Store, corpus *EmbeddedCorpus, genTimeout time.Duration, logger *zap.Logger) *AdvisorService {
	if genTimeout <= 0 {
		genTimeout = 60 * time.Second
	}
	return &AdvisorService{
		retriever:  retriever,
		generator:  generator,
		sessions:   sessions,
		corpus:     corpus,
		genTimeout: genTimeout,
		logger:     logger,
	}
}

// Ready reports whether the corpus has been loaded and embedded.
func (s *AdvisorService) Ready() bool { return s.corpus.Ready() }

// CorpusSize returns the number of embedded records.
func (s *AdvisorService) CorpusSize() int { return s.corpus.Len() }

// StartSession creates a fresh session, merging the farmer profile if
// given.
func (s *AdvisorService) StartSession(initialProfile map[string]string) (string, map[string]string) {
	sess := s.sessions.Create(initialProfile)
	profile, _ := s.sessions.Profile(sess.ID)
	s.logger.Info("session started", zap.String("session_id", sess.ID))
	return sess.ID, profile
}

// Ask runs one full advisory turn. A failed generation appends nothing
// to the session log.
func (s *AdvisorService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	// Reuse the session if the ID is known; otherwise create a new one,
	// honoring any supplied farmer profile.
	sessionID := req.SessionID
	if _, err := s.sessions.Get(sessionID); sessionID == "" || err != nil {
		sess := s.sessions.Create(req.FarmerProfile)
		sessionID = sess.ID
		s.logger.Info("created session for ask", zap.String("session_id", sessionID))
	}

	if !s.corpus.Ready() {
		return nil, ErrDataNotReady
	}

	retrieval, err := s.retriever.Retrieve(ctx, query, s.corpus)
	if err != nil {
		return nil, err
	}

	// Snapshot all session reads before the model round-trip so no
	// session state is touched while the call is in flight.
	profile, err := s.sessions.Profile(sessionID)
	if err != nil {
		return nil, err
	}
	recent, err := s.sessions.RecentExchanges(sessionID, historyExchanges)
	if err != nil {
		return nil, err
	}
	topics, err := s.sessions.SummarizeTopics(sessionID)
	if err != nil {
		return nil, err
	}

	prompt := ComposePrompt(PromptData{
		Query:   query,
		Profile: profile,
		Recent:  recent,
		Topics:  topics,
	}, retrieval)

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	answer, err := s.generator.GenerateAnswer(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || genCtx.Err() == context.DeadlineExceeded {
			s.logger.Warn("generation timed out", zap.String("session_id", sessionID), zap.Duration("timeout", s.genTimeout))
			return nil, ErrGenerateTimeout
		}
		return nil, err
	}

	if err := s.sessions.AppendExchange(sessionID, query, answer, retrieval.UsedContext); err != nil {
		return nil, err
	}

	count, err := s.sessions.Count(sessionID)
	if err != nil {
		return nil, err
	}
	topics, err = s.sessions.SummarizeTopics(sessionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("answered query",
		zap.String("session_id", sessionID),
		zap.Bool("used_context", retrieval.UsedContext),
		zap.Int("matches", len(retrieval.Matches)))

	return &AskResult{
		SessionID:            sessionID,
		Query:                query,
		Answer:               answer,
		UsedRetrievedContext: retrieval.UsedContext,
		ConversationCount:    count,
		FarmerProfile:        profile,
		TopicsDiscussed:      topics,
	}, nil
}

// History returns up to the 10 most recent exchanges for a session.
func (s *AdvisorService) History(sessionID string) (*HistoryResult, error) {
	exchanges, err := s.sessions.RecentExchanges(sessionID, historyLimit)
	if err != nil {
		return nil, err
	}
	profile, err := s.sessions.Profile(sessionID)
	if err != nil {
		return nil, err
	}
	topics, err := s.sessions.SummarizeTopics(sessionID)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{
		SessionID:       sessionID,
		Exchanges:       exchanges,
		FarmerProfile:   profile,
		TopicsDiscussed: topics,
	}, nil
}

// UpdateProfile merge-overwrites farmer profile fields.
func (s *AdvisorService) UpdateProfile(sessionID string, partial map[string]string) (map[string]string, error) {
	return s.sessions.UpdateProfile(sessionID, partial)
}

// Sessions lists all live sessions for the debug endpoint.
func (s *AdvisorService) Sessions() map[string]session.Overview {
	return s.sessions.Snapshot()
}
