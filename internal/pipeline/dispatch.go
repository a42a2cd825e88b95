package pipeline

import (
	"context"
	"log/slog"

	"github.com/smartkrishi/smsgate/internal/conversation"
)

// runDispatchWorker drains the dispatch queue, calling the AI backend
// per job. A failed job never stops the loop.
func (s *Service) runDispatchWorker(ctx context.Context, id int) {
	log := s.logger.With(slog.Int("dispatch_worker", id))
	for {
		select {
		case <-ctx.Done():
			log.Info("dispatch worker stop")
			return
		case job := <-s.dispatchQueue:
			s.processDispatch(ctx, log, job)
		}
	}
}

// processDispatch runs one AI turn. The assistant reply is appended to
// history before its send job is enqueued, so history order is correct
// for any observer reading after queue drain.
func (s *Service) processDispatch(ctx context.Context, log *slog.Logger, job dispatchJob) {
	reply, err := s.sessions.Send(ctx, job.phone, job.text, s.cfg.Grounding)
	if err != nil {
		log.Error("ai reply failed", slog.String("phone", job.phone), slog.Any("error", err))
		s.conv.Append(job.phone, conversation.RoleSystem, conversation.DirectionOutbound,
			"AI reply failed: "+err.Error())
		if s.cfg.ApologyText != "" {
			if qErr := s.enqueueSend(job.phone, s.cfg.ApologyText); qErr != nil {
				log.Warn("apology dropped", slog.String("phone", job.phone), slog.Any("error", qErr))
			}
		}
		return
	}

	s.conv.Append(job.phone, conversation.RoleAssistant, conversation.DirectionOutbound, reply)
	if err := s.enqueueSend(job.phone, reply); err != nil {
		log.Error("reply dropped", slog.String("phone", job.phone), slog.Any("error", err))
	}
}
